package workflow

import "github.com/Windi-Fikriyansyah/giglink_be/internal/models"

// Machine is a table of legal status transitions for one entity.
type Machine[S ~string] struct {
	entity   string
	known    map[S]bool
	edges    map[S]map[S]bool
	terminal map[S]bool
}

// Edge is a single allowed move.
type Edge[S ~string] struct {
	From, To S
}

func NewMachine[S ~string](entity string, states []S, terminal []S, edges ...Edge[S]) *Machine[S] {
	m := &Machine[S]{
		entity:   entity,
		known:    make(map[S]bool, len(states)),
		edges:    make(map[S]map[S]bool),
		terminal: make(map[S]bool, len(terminal)),
	}
	for _, s := range states {
		m.known[s] = true
	}
	for _, s := range terminal {
		m.terminal[s] = true
	}
	for _, e := range edges {
		if m.edges[e.From] == nil {
			m.edges[e.From] = make(map[S]bool)
		}
		m.edges[e.From][e.To] = true
	}
	return m
}

func (m *Machine[S]) Known(s S) bool { return m.known[s] }

func (m *Machine[S]) Terminal(s S) bool { return m.terminal[s] }

// Check validates moving from one status to another. Staying in a
// non-terminal status is always allowed.
func (m *Machine[S]) Check(from, to S) error {
	if m.terminal[from] {
		return TerminalState(m.entity, "%s with status %s cannot be changed", m.entity, from)
	}
	if !m.known[to] {
		return Validation(m.entity, "unknown %s status %q", m.entity, to)
	}
	if from == to || m.edges[from][to] {
		return nil
	}
	return InvalidTransition(m.entity, "%s with status %s cannot be updated to %s", m.entity, from, to)
}

var JobMachine = NewMachine("Job",
	[]models.JobStatus{models.JobStatusPending, models.JobStatusAccepted, models.JobStatusCompleted, models.JobStatusCancelled},
	[]models.JobStatus{models.JobStatusCompleted, models.JobStatusCancelled},
	Edge[models.JobStatus]{models.JobStatusPending, models.JobStatusAccepted},
	Edge[models.JobStatus]{models.JobStatusPending, models.JobStatusCancelled},
	Edge[models.JobStatus]{models.JobStatusAccepted, models.JobStatusCompleted},
	Edge[models.JobStatus]{models.JobStatusAccepted, models.JobStatusCancelled},
)

var ProposalMachine = NewMachine("Proposal",
	[]models.ProposalStatus{models.ProposalStatusPending, models.ProposalStatusAccepted, models.ProposalStatusDeclined},
	[]models.ProposalStatus{models.ProposalStatusAccepted, models.ProposalStatusDeclined},
	Edge[models.ProposalStatus]{models.ProposalStatusPending, models.ProposalStatusAccepted},
	Edge[models.ProposalStatus]{models.ProposalStatusPending, models.ProposalStatusDeclined},
)

var RequestMachine = NewMachine("Request",
	[]models.RequestStatus{models.RequestStatusPending, models.RequestStatusAccepted, models.RequestStatusDeclined},
	[]models.RequestStatus{models.RequestStatusAccepted, models.RequestStatusDeclined},
	Edge[models.RequestStatus]{models.RequestStatusPending, models.RequestStatusAccepted},
	Edge[models.RequestStatus]{models.RequestStatusPending, models.RequestStatusDeclined},
)
