package tasks

import (
	"VoxelStream/shared/util"

	"github.com/sirupsen/logrus"
)

// MainQueue guarda callbacks que só podem rodar na thread de controle.
// Workers postam, o loop principal drena.
type MainQueue struct {
	log   *logrus.Entry
	queue *util.ThreadSafeQueue[func()]
}

// NewMainQueue cria uma fila vazia.
func NewMainQueue(name string) *MainQueue {
	return &MainQueue{
		log:   logrus.WithField("fila", name),
		queue: util.NewThreadSafeQueue[func()](),
	}
}

// Post agenda fn para a próxima drenagem.
func (q *MainQueue) Post(fn func()) {
	q.queue.Push(fn)
}

// DrainAll executa tudo que estava na fila no início da chamada.
// Callbacks postados durante a drenagem ficam para o próximo tick.
func (q *MainQueue) DrainAll() int {
	fns := q.queue.PopAll()
	for _, fn := range fns {
		q.call(fn)
	}
	return len(fns)
}

// DrainOne executa no máximo um callback.
func (q *MainQueue) DrainOne() bool {
	fn, ok := q.queue.Pop()
	if !ok {
		return false
	}
	q.call(fn)
	return true
}

// Len retorna quantos callbacks aguardam.
func (q *MainQueue) Len() int {
	return q.queue.Len()
}

func (q *MainQueue) call(fn func()) {
	run(q.log, func() error {
		fn()
		return nil
	})
}
