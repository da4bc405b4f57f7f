// Package assert verifica invariantes internas.
// Com a build tag "debug" uma violação entra em pânico; sem ela, a violação é
// registrada no log e o chamador segue adiante tratando o caso como no-op.
package assert

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Violation é o valor usado no panic quando uma invariante falha em modo debug.
type Violation struct {
	Msg string
}

func (v *Violation) Error() string {
	return "invariante violada: " + v.Msg
}

// IsTrue retorna ok. Quando ok é falso, entra em pânico (debug) ou registra um aviso.
func IsTrue(ok bool, message string, args ...interface{}) bool {
	if ok {
		return true
	}
	v := &Violation{Msg: fmt.Sprintf(message, args...)}
	if Enabled {
		panic(v)
	}
	logrus.Warnf("[Assert] %v", v)
	return false
}
