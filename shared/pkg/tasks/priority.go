package tasks

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// PriorityQueue é uma fila concorrente de itens únicos (por identidade) servida
// por N workers. A ordem só muda em Reprioritize; entre duas chamadas os itens
// novos entram no fim, em ordem de chegada.
type PriorityQueue[T comparable] struct {
	name string
	log  *logrus.Entry

	mu       sync.Mutex
	cond     *sync.Cond
	items    []T
	present  map[T]bool
	signals  int // sinais pendentes de acordar worker; sempre igual a len(items)
	priority func(T) float32
	running  bool
	stopped  bool

	wg sync.WaitGroup
}

// NewPriorityQueue cria uma fila parada. priority pode ser nil e definida depois
// com SetPriority.
func NewPriorityQueue[T comparable](name string, priority func(T) float32) *PriorityQueue[T] {
	q := &PriorityQueue[T]{
		name:     name,
		log:      logrus.WithField("fila", name),
		items:    make([]T, 0, 64),
		present:  make(map[T]bool),
		priority: priority,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// SetPriority troca a função de prioridade usada por Reprioritize.
func (q *PriorityQueue[T]) SetPriority(fn func(T) float32) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.priority = fn
}

// Start inicia workers goroutines que executam action para cada item retirado.
// Erros e panics de action são registrados e o worker segue para o próximo item.
func (q *PriorityQueue[T]) Start(workers int, action func(T) error) {
	q.mu.Lock()
	if q.running || q.stopped {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()

	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker(action)
	}
	q.log.Debugf("[Tasks] Fila %s iniciada com %d workers", q.name, workers)
}

func (q *PriorityQueue[T]) worker(action func(T) error) {
	defer q.wg.Done()
	for {
		item, ok := q.next()
		if !ok {
			return
		}
		run(q.log, func() error { return action(item) })
	}
}

// next bloqueia até haver item ou a fila parar.
func (q *PriorityQueue[T]) next() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.signals == 0 && !q.stopped {
		q.cond.Wait()
	}
	if q.stopped {
		var zero T
		return zero, false
	}
	item := q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]
	delete(q.present, item)
	q.signals--
	return item, true
}

// Enqueue adiciona o item se ele ainda não estiver pendente.
// Retorna true se foi adicionado.
func (q *PriorityQueue[T]) Enqueue(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped || q.present[item] {
		return false
	}
	q.items = append(q.items, item)
	q.present[item] = true
	q.signals++
	q.cond.Signal()
	return true
}

// EnqueueMany adiciona os itens ausentes de uma vez e acorda um worker por item
// novo. Retorna quantos foram adicionados.
func (q *PriorityQueue[T]) EnqueueMany(items []T) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return 0
	}
	added := 0
	for _, item := range items {
		if q.present[item] {
			continue
		}
		q.items = append(q.items, item)
		q.present[item] = true
		added++
	}
	q.signals += added
	for i := 0; i < added; i++ {
		q.cond.Signal()
	}
	return added
}

// Dequeue remove todas as ocorrências do item. Retorna quantas foram removidas.
func (q *PriorityQueue[T]) Dequeue(item T) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.present[item] {
		return 0
	}
	removed := 0
	kept := q.items[:0]
	for _, it := range q.items {
		if it == item {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	var zero T
	for i := len(kept); i < len(q.items); i++ {
		q.items[i] = zero
	}
	q.items = kept
	delete(q.present, item)
	q.signals -= removed
	return removed
}

// Reprioritize reordena os pendentes pela prioridade atual, maior primeiro.
// Deve ser chamado só pela thread de controle.
func (q *PriorityQueue[T]) Reprioritize() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.priority == nil || len(q.items) < 2 {
		return
	}
	scores := make(map[T]float32, len(q.items))
	for _, it := range q.items {
		scores[it] = q.priority(it)
	}
	sort.SliceStable(q.items, func(i, j int) bool {
		return scores[q.items[i]] > scores[q.items[j]]
	})
}

// Contains verifica se o item está pendente.
func (q *PriorityQueue[T]) Contains(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.present[item]
}

// Len retorna o número de itens pendentes.
func (q *PriorityQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Snapshot retorna uma cópia dos pendentes na ordem atual.
func (q *PriorityQueue[T]) Snapshot() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}

// pendingSignals expõe o contador de sinais (testes).
func (q *PriorityQueue[T]) pendingSignals() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.signals
}

// Stop faz os workers saírem depois do item atual e espera por eles.
// Nenhum item é retirado depois disso.
func (q *PriorityQueue[T]) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	q.cond.Broadcast()
	q.mu.Unlock()

	q.wg.Wait()
	q.log.Debugf("[Tasks] Fila %s parada (%d itens descartados)", q.name, q.Len())
}
