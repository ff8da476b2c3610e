package task

// Slot holds the tasks hashed to one wheel position. Access is guarded by
// the owning wheel.
type Slot struct {
	tasks map[string]*Task
}

func NewSlot() *Slot {
	return &Slot{tasks: make(map[string]*Task)}
}

func (s *Slot) add(task *Task) {
	s.tasks[task.ID] = task
}

func (s *Slot) remove(taskID string) bool {
	if _, ok := s.tasks[taskID]; !ok {
		return false
	}
	delete(s.tasks, taskID)
	return true
}

// expire removes and returns the tasks due this revolution and counts the
// rest one round closer.
func (s *Slot) expire() []*Task {
	if len(s.tasks) == 0 {
		return nil
	}

	var due []*Task
	for id, task := range s.tasks {
		if task.rounds > 0 {
			task.rounds--
			continue
		}
		due = append(due, task)
		delete(s.tasks, id)
	}
	return due
}

func (s *Slot) Count() int {
	return len(s.tasks)
}
