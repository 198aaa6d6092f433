package bank

import "sync"

// employeeLocks serializes balance-touching operations per employee.
// Approvals and batch allocation for different employees proceed in
// parallel; for the same employee they queue.
type employeeLocks struct {
	mu    sync.Mutex
	locks map[EmployeeID]*sync.Mutex
}

func newEmployeeLocks() *employeeLocks {
	return &employeeLocks{locks: make(map[EmployeeID]*sync.Mutex)}
}

// acquire locks the employee's mutex and returns the unlock func.
func (l *employeeLocks) acquire(id EmployeeID) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
