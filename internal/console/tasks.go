package console

import "slices"

type task struct {
	due     float64
	command string
}

// Schedule queues command to run once the simulated time reaches
// now+delay. Tasks due at the same time run in scheduling order.
func (c *Console) Schedule(delay float64, command string) {
	t := task{due: c.clock.Time() + delay, command: command}
	i, _ := slices.BinarySearchFunc(c.tasks, t.due, func(x task, due float64) int {
		if x.due <= due {
			return -1
		}
		return 1
	})
	c.tasks = slices.Insert(c.tasks, i, t)
}

// Pending returns the number of scheduled tasks.
func (c *Console) Pending() int {
	return len(c.tasks)
}

// RunDue runs every task due at now.
func (c *Console) RunDue(now float64) {
	for len(c.tasks) > 0 && c.tasks[0].due <= now {
		t := c.tasks[0]
		c.tasks = c.tasks[1:]
		if err := c.Process(t.command); err != nil {
			c.Printf("Error: %q (%v)\n", t.command, err)
			c.logger.Error("task failed", "command", t.command, "error", err)
		}
	}
}
