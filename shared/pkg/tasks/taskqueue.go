package tasks

import (
	"sync"

	"github.com/sirupsen/logrus"
)

type task struct {
	fn   func() error
	done chan error // nil para tarefas sem espera
}

// TaskQueue é uma fila FIFO servida por uma única goroutine.
// Tarefas urgentes entram na frente. Usada para I/O de persistência.
type TaskQueue struct {
	name string
	log  *logrus.Entry

	mu      sync.Mutex
	cond    *sync.Cond
	tasks   []task
	busy    bool
	stopped bool

	exited chan struct{}
}

// NewTaskQueue cria a fila e inicia sua goroutine.
func NewTaskQueue(name string) *TaskQueue {
	q := &TaskQueue{
		name:   name,
		log:    logrus.WithField("fila", name),
		exited: make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.loop()
	return q
}

func (q *TaskQueue) loop() {
	defer close(q.exited)
	for {
		q.mu.Lock()
		for len(q.tasks) == 0 && !q.stopped {
			q.cond.Wait()
		}
		if q.stopped {
			pending := q.tasks
			q.tasks = nil
			q.mu.Unlock()
			for _, t := range pending {
				if t.done != nil {
					t.done <- ErrStopped
				}
			}
			return
		}
		t := q.tasks[0]
		q.tasks[0] = task{}
		q.tasks = q.tasks[1:]
		q.busy = true
		q.mu.Unlock()

		err := run(q.log, t.fn)
		if t.done != nil {
			t.done <- err
		}

		q.mu.Lock()
		q.busy = false
		q.cond.Broadcast()
		q.mu.Unlock()
	}
}

func (q *TaskQueue) push(t task, urgent bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return false
	}
	if urgent {
		q.tasks = append([]task{t}, q.tasks...)
	} else {
		q.tasks = append(q.tasks, t)
	}
	q.cond.Broadcast()
	return true
}

// Enqueue agenda fn sem esperar. Retorna false se a fila já foi parada.
func (q *TaskQueue) Enqueue(fn func() error, urgent bool) bool {
	return q.push(task{fn: fn}, urgent)
}

// Call agenda fn e espera seu resultado.
func (q *TaskQueue) Call(fn func() error, urgent bool) error {
	done := make(chan error, 1)
	if !q.push(task{fn: fn, done: done}, urgent) {
		return ErrStopped
	}
	return <-done
}

// Flush bloqueia até a fila ficar vazia e ociosa.
func (q *TaskQueue) Flush() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for (len(q.tasks) > 0 || q.busy) && !q.stopped {
		q.cond.Wait()
	}
}

// Len retorna o número de tarefas aguardando.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Stop encerra a goroutine depois da tarefa atual. Tarefas não executadas são
// descartadas; quem esperava em Call recebe ErrStopped.
func (q *TaskQueue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		<-q.exited
		return
	}
	q.stopped = true
	q.cond.Broadcast()
	q.mu.Unlock()
	<-q.exited
}
