// Package scheduler implements Critical Path Method analysis over a single
// project's task and dependency graph. An Engine is built from one project
// snapshot, used for one or more operations, then discarded.
package scheduler

import (
	"fmt"
	"sort"
	"time"

	"github.com/gadsdencode/ProTrax-sub001/pkg/models"
	"github.com/pkg/errors"
)

// Hours of effort that map to one calendar day when a task carries only an
// hour estimate instead of explicit dates.
const workdayHours = 8

var (
	// ErrCyclicDependency is returned by DetectCycle when the dependency
	// graph contains a cycle.
	ErrCyclicDependency = errors.New("cyclic dependency")

	// ErrUnknownDependencyType is returned by NewEngine when a dependency
	// carries a type other than fs, ss, ff or sf.
	ErrUnknownDependencyType = errors.New("unknown dependency type")
)

// Engine owns the task/dependency graph for one project snapshot. It operates
// on private copies of the tasks passed in at construction; callers read
// results back through UpdatedTasks and Schedule. An Engine is not safe for
// concurrent use.
type Engine struct {
	nodes map[int64]*node
	order []int64 // ascending task IDs, for deterministic iteration
	now   time.Time
}

// NewEngine builds an engine from the full task and dependency lists of one
// project. Dependencies referencing tasks outside the set are dropped
// silently; a dependency with an unknown type is an error.
func NewEngine(tasks []models.Task, deps []models.TaskDependency) (*Engine, error) {
	return NewEngineAt(tasks, deps, time.Now())
}

// NewEngineAt is NewEngine with an explicit reference time, used as the
// fallback start date for unscheduled tasks with no predecessors.
func NewEngineAt(tasks []models.Task, deps []models.TaskDependency, now time.Time) (*Engine, error) {
	e := &Engine{
		nodes: make(map[int64]*node, len(tasks)),
		now:   now,
	}
	for _, t := range tasks {
		e.nodes[t.ID] = &node{task: cloneTask(t)}
	}
	for id := range e.nodes {
		e.order = append(e.order, id)
	}
	sort.Slice(e.order, func(i, j int) bool { return e.order[i] < e.order[j] })

	for _, d := range deps {
		if !d.Type.IsValid() {
			return nil, errors.Wrapf(ErrUnknownDependencyType, "dependency %d has type %q", d.ID, d.Type)
		}
		pred, ok := e.nodes[d.PredecessorID]
		if !ok {
			continue
		}
		succ, ok := e.nodes[d.SuccessorID]
		if !ok {
			continue
		}
		succ.predecessors = append(succ.predecessors, edge{dep: d, other: d.PredecessorID})
		pred.successors = append(pred.successors, edge{dep: d, other: d.SuccessorID})
	}
	return e, nil
}

// DetectCycle runs Kahn's algorithm over the dependency graph and returns
// ErrCyclicDependency naming a task on the cycle if one exists. The passes
// themselves tolerate cycles via visited-set guards, but their output for a
// cyclic graph is order-dependent; callers that need trustworthy results
// should run this pre-check first.
func (e *Engine) DetectCycle() error {
	inDegree := make(map[int64]int, len(e.nodes))
	for _, id := range e.order {
		inDegree[id] = len(e.nodes[id].predecessors)
	}
	var queue []int64
	for _, id := range e.order {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	sorted := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		sorted++
		for _, s := range e.nodes[id].successors {
			inDegree[s.other]--
			if inDegree[s.other] == 0 {
				queue = append(queue, s.other)
			}
		}
	}
	if sorted == len(e.nodes) {
		return nil
	}
	for _, id := range e.order {
		if inDegree[id] > 0 {
			return errors.Wrapf(ErrCyclicDependency, "task %d", id)
		}
	}
	return nil
}

// CalculateCriticalPath runs the forward and backward passes, computes
// per-task slack, sets IsOnCriticalPath on every task, and returns the IDs of
// zero-slack tasks in ascending ID order.
func (e *Engine) CalculateCriticalPath() []int64 {
	e.forwardPass()
	e.backwardPass()

	var critical []int64
	for _, id := range e.order {
		n := e.nodes[id]
		n.slack = daysBetween(n.earlyStart, n.lateStart)
		n.task.IsOnCriticalPath = n.slack == 0
		if n.slack == 0 {
			critical = append(critical, id)
		}
	}
	return critical
}

// frame is one entry on the explicit traversal stack. A frame is expanded
// once to push its unvisited neighbors, then computed when popped again.
type frame struct {
	id       int64
	expanded bool
}

// forwardPass computes early start/finish for every task, visiting all
// predecessors of a task before the task itself. An explicit stack replaces
// recursion so deep chains cannot exhaust the call stack, and the visited set
// terminates traversal on cyclic graphs.
func (e *Engine) forwardPass() {
	visited := make(map[int64]bool, len(e.nodes))
	for _, root := range e.order {
		if visited[root] {
			continue
		}
		stack := []frame{{id: root}}
		for len(stack) > 0 {
			i := len(stack) - 1
			if stack[i].expanded {
				e.computeEarlyDates(stack[i].id)
				stack = stack[:i]
				continue
			}
			if visited[stack[i].id] {
				stack = stack[:i]
				continue
			}
			visited[stack[i].id] = true
			stack[i].expanded = true
			for _, p := range e.nodes[stack[i].id].predecessors {
				if !visited[p.other] {
					stack = append(stack, frame{id: p.other})
				}
			}
		}
	}
}

func (e *Engine) computeEarlyDates(id int64) {
	n := e.nodes[id]
	d := e.durationDays(n)

	if len(n.predecessors) == 0 {
		if n.task.StartDate != nil {
			n.earlyStart = *n.task.StartDate
		} else {
			n.earlyStart = e.now
		}
		n.earlyFinish = n.earlyStart.AddDate(0, 0, d)
		return
	}

	var startBound, finishBound *time.Time
	for _, p := range n.predecessors {
		pn := e.nodes[p.other]
		c := constraintDate(p.dep, pn.earlyStart, pn.earlyFinish, directionEarly)
		switch p.dep.Type {
		case models.FinishToStart, models.StartToStart:
			startBound = laterOf(startBound, c)
		case models.FinishToFinish, models.StartToFinish:
			finishBound = laterOf(finishBound, c)
		}
	}

	switch {
	case finishBound != nil:
		n.earlyFinish = *finishBound
		n.earlyStart = n.earlyFinish.AddDate(0, 0, -d)
		// A start constraint that lands later than the finish-derived start
		// pushes the whole task out.
		if startBound != nil && startBound.After(n.earlyStart) {
			n.earlyStart = *startBound
			n.earlyFinish = n.earlyStart.AddDate(0, 0, d)
		}
	case startBound != nil:
		n.earlyStart = *startBound
		n.earlyFinish = n.earlyStart.AddDate(0, 0, d)
	default:
		n.earlyStart = e.now
		n.earlyFinish = n.earlyStart.AddDate(0, 0, d)
	}
}

// backwardPass computes late start/finish for every task, visiting all
// successors of a task before the task itself. The project end date is the
// maximum early finish across all tasks.
func (e *Engine) backwardPass() {
	end := e.projectEnd()
	visited := make(map[int64]bool, len(e.nodes))
	for _, root := range e.order {
		if visited[root] {
			continue
		}
		stack := []frame{{id: root}}
		for len(stack) > 0 {
			i := len(stack) - 1
			if stack[i].expanded {
				e.computeLateDates(stack[i].id, end)
				stack = stack[:i]
				continue
			}
			if visited[stack[i].id] {
				stack = stack[:i]
				continue
			}
			visited[stack[i].id] = true
			stack[i].expanded = true
			for _, s := range e.nodes[stack[i].id].successors {
				if !visited[s.other] {
					stack = append(stack, frame{id: s.other})
				}
			}
		}
	}
}

func (e *Engine) computeLateDates(id int64, end time.Time) {
	n := e.nodes[id]
	d := e.durationDays(n)

	if len(n.successors) == 0 {
		n.lateFinish = end
		n.lateStart = end.AddDate(0, 0, -d)
		return
	}

	var startBound, finishBound *time.Time
	for _, s := range n.successors {
		sn := e.nodes[s.other]
		c := constraintDate(s.dep, sn.lateStart, sn.lateFinish, directionLate)
		switch s.dep.Type {
		case models.FinishToStart, models.FinishToFinish:
			finishBound = earlierOf(finishBound, c)
		case models.StartToStart, models.StartToFinish:
			startBound = earlierOf(startBound, c)
		}
	}

	switch {
	case finishBound != nil:
		n.lateFinish = *finishBound
		n.lateStart = n.lateFinish.AddDate(0, 0, -d)
		// A start constraint earlier than the finish-derived start tightens
		// the window further.
		if startBound != nil && startBound.Before(n.lateStart) {
			n.lateStart = *startBound
			n.lateFinish = n.lateStart.AddDate(0, 0, d)
		}
	case startBound != nil:
		n.lateStart = *startBound
		n.lateFinish = n.lateStart.AddDate(0, 0, d)
	default:
		n.lateFinish = end
		n.lateStart = end.AddDate(0, 0, -d)
	}
}

func (e *Engine) projectEnd() time.Time {
	end := e.now
	first := true
	for _, id := range e.order {
		ef := e.nodes[id].earlyFinish
		if first || ef.After(end) {
			end = ef
			first = false
		}
	}
	return end
}

// constraintDate resolves one precedence relationship into a bound on the
// other task. For the early direction the caller passes the predecessor's
// early dates and the lag is added; for the late direction the caller passes
// the successor's late dates and the lag is subtracted. The type switch is
// exhaustive because NewEngine rejects unknown types.
func constraintDate(dep models.TaskDependency, start, finish time.Time, dir direction) time.Time {
	var base time.Time
	if dir == directionEarly {
		switch dep.Type {
		case models.FinishToStart, models.FinishToFinish:
			base = finish
		case models.StartToStart, models.StartToFinish:
			base = start
		}
		return base.AddDate(0, 0, dep.Lag)
	}
	switch dep.Type {
	case models.FinishToStart, models.StartToStart:
		base = start
	case models.FinishToFinish, models.StartToFinish:
		base = finish
	}
	return base.AddDate(0, 0, -dep.Lag)
}

// ValidateTaskDateChange checks proposed dates for a task against the
// persisted dates of its predecessors. It mutates nothing and returns one
// violation per broken constraint; predecessors missing the relevant date
// cannot constrain and are skipped.
func (e *Engine) ValidateTaskDateChange(taskID int64, newStart, newDue time.Time) []models.DependencyViolation {
	n, ok := e.nodes[taskID]
	if !ok {
		return nil
	}

	var violations []models.DependencyViolation
	for _, p := range n.predecessors {
		pt := e.nodes[p.other].task

		var base *time.Time
		switch p.dep.Type {
		case models.FinishToStart, models.FinishToFinish:
			base = pt.DueDate
		case models.StartToStart, models.StartToFinish:
			base = pt.StartDate
		}
		if base == nil {
			continue
		}
		constraint := base.AddDate(0, 0, p.dep.Lag)

		var msg string
		switch p.dep.Type {
		case models.FinishToStart:
			if newStart.Before(constraint) {
				msg = fmt.Sprintf("cannot start before %q finishes%s", pt.Title, lagSuffix(p.dep.Lag))
			}
		case models.StartToStart:
			if newStart.Before(constraint) {
				msg = fmt.Sprintf("cannot start before %q starts%s", pt.Title, lagSuffix(p.dep.Lag))
			}
		case models.FinishToFinish:
			if newDue.Before(constraint) {
				msg = fmt.Sprintf("cannot finish before %q finishes%s", pt.Title, lagSuffix(p.dep.Lag))
			}
		case models.StartToFinish:
			if newDue.Before(constraint) {
				msg = fmt.Sprintf("cannot finish before %q starts%s", pt.Title, lagSuffix(p.dep.Lag))
			}
		}
		if msg != "" {
			violations = append(violations, models.DependencyViolation{
				TaskID:       taskID,
				DependencyID: p.dep.ID,
				Message:      msg,
			})
		}
	}
	return violations
}

func lagSuffix(lag int) string {
	switch {
	case lag > 0:
		return fmt.Sprintf(" (plus %d day lag)", lag)
	case lag < 0:
		return fmt.Sprintf(" (minus %d day lead)", -lag)
	default:
		return ""
	}
}

// CascadeScheduleUpdate sets the given task's dates without validation, then
// propagates the shift breadth-first through successor dependencies. A
// successor only moves when its newly derived start is strictly later than
// its current start, so cascades never pull tasks earlier. Returns copies of
// every task whose dates changed, the origin task first.
func (e *Engine) CascadeScheduleUpdate(taskID int64, newStart, newDue time.Time) []models.Task {
	n, ok := e.nodes[taskID]
	if !ok {
		return nil
	}
	setDates(&n.task, newStart, newDue)

	visited := map[int64]bool{taskID: true}
	queue := []int64{taskID}
	updated := []int64{taskID}

	for len(queue) > 0 {
		cur := e.nodes[queue[0]]
		queue = queue[1:]

		for _, s := range cur.successors {
			if visited[s.other] {
				continue
			}

			var base *time.Time
			switch s.dep.Type {
			case models.FinishToStart, models.FinishToFinish:
				base = cur.task.DueDate
			case models.StartToStart, models.StartToFinish:
				base = cur.task.StartDate
			}
			if base == nil {
				continue
			}
			constraint := base.AddDate(0, 0, s.dep.Lag)

			sn := e.nodes[s.other]
			d := e.durationDays(sn)
			var start, finish time.Time
			if s.dep.Type == models.FinishToFinish {
				// The constraint anchors the finish; start is derived backward.
				finish = constraint
				start = finish.AddDate(0, 0, -d)
			} else {
				start = constraint
				finish = start.AddDate(0, 0, d)
			}

			if sn.task.StartDate != nil && !start.After(*sn.task.StartDate) {
				continue
			}

			setDates(&sn.task, start, finish)
			visited[s.other] = true
			queue = append(queue, s.other)
			updated = append(updated, s.other)
		}
	}

	out := make([]models.Task, 0, len(updated))
	for _, id := range updated {
		out = append(out, cloneTask(e.nodes[id].task))
	}
	return out
}

// UpdatedTasks returns fresh copies of every task, reflecting all mutations
// performed by the engine, in ascending ID order.
func (e *Engine) UpdatedTasks() []models.Task {
	out := make([]models.Task, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, cloneTask(e.nodes[id].task))
	}
	return out
}

// Schedule returns the computed scheduling window for one task. Only
// meaningful after CalculateCriticalPath has run.
func (e *Engine) Schedule(taskID int64) (TaskSchedule, bool) {
	n, ok := e.nodes[taskID]
	if !ok {
		return TaskSchedule{}, false
	}
	return TaskSchedule{
		TaskID:         taskID,
		EarlyStart:     n.earlyStart,
		EarlyFinish:    n.earlyFinish,
		LateStart:      n.lateStart,
		LateFinish:     n.lateFinish,
		Slack:          n.slack,
		OnCriticalPath: n.task.IsOnCriticalPath,
	}, true
}

// durationDays converts a task to a duration in calendar days: milestones are
// zero; explicit dates win over the hour estimate; an estimate is divided by
// the 8-hour workday and rounded up; everything else defaults to one day.
func (e *Engine) durationDays(n *node) int {
	t := n.task
	if t.IsMilestone {
		return 0
	}
	if t.StartDate != nil && t.DueDate != nil {
		days := daysBetween(*t.StartDate, *t.DueDate)
		if days < 1 {
			days = 1
		}
		return days
	}
	if t.Duration != nil && *t.Duration > 0 {
		return (*t.Duration + workdayHours - 1) / workdayHours
	}
	return 1
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

func laterOf(cur *time.Time, candidate time.Time) *time.Time {
	if cur == nil || candidate.After(*cur) {
		return &candidate
	}
	return cur
}

func earlierOf(cur *time.Time, candidate time.Time) *time.Time {
	if cur == nil || candidate.Before(*cur) {
		return &candidate
	}
	return cur
}

func setDates(t *models.Task, start, due time.Time) {
	s, d := start, due
	t.StartDate = &s
	t.DueDate = &d
}

// cloneTask deep-copies a task so engine mutations never alias caller-owned
// memory.
func cloneTask(t models.Task) models.Task {
	c := t
	if t.StartDate != nil {
		v := *t.StartDate
		c.StartDate = &v
	}
	if t.DueDate != nil {
		v := *t.DueDate
		c.DueDate = &v
	}
	if t.Duration != nil {
		v := *t.Duration
		c.Duration = &v
	}
	return c
}
