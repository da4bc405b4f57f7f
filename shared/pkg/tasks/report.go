// Package tasks reúne as filas de trabalho do motor de chunks:
// a fila de prioridade com workers, a fila de I/O com tarefas urgentes
// e as filas drenadas pela thread principal.
package tasks

import (
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

// ErrStopped é retornado quando uma tarefa é submetida (ou abandonada) após Stop.
var ErrStopped = errors.New("tasks: fila parada")

// run executa fn isolando panics. Erros e panics são registrados e enviados ao
// sentry; o item é descartado e o worker continua.
func run(log *logrus.Entry, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			hub := sentry.CurrentHub().Clone()
			hub.Recover(r)
			hub.Flush(2 * time.Second)
			log.Errorf("[Tasks] Panic recuperado no worker: %v", r)
		}
	}()

	if err = fn(); err != nil {
		log.Warnf("[Tasks] Tarefa falhou: %v", err)
		sentry.CurrentHub().Clone().CaptureException(err)
	}
	return err
}
