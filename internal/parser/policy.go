package parser

import (
	"log/slog"
	"strings"

	"junos-ppsm/internal/model"
)

// Grammar is the statement shape a policy line was written in.
type Grammar int

const (
	// LogicalSystemZonePair: set logical-systems <ls> security policies from-zone <f> to-zone <t> [policy] <name> ...
	LogicalSystemZonePair Grammar = iota + 1
	// GlobalZonePair: set security policies from-zone <f> to-zone <t> [policy] <name> ...
	GlobalZonePair
	// GlobalToGlobal: set [logical-systems <ls>] security policies global [policy] <name> ...
	GlobalToGlobal
)

func (g Grammar) String() string {
	switch g {
	case LogicalSystemZonePair:
		return "logical-system"
	case GlobalZonePair:
		return "global-zone-pair"
	case GlobalToGlobal:
		return "global-to-global"
	default:
		return "unknown"
	}
}

type Clause string

const (
	ClauseMatch Clause = "match"
	ClauseThen  Clause = "then"
)

// Statement is one classified policy line.
type Statement struct {
	Grammar Grammar
	Key     model.PolicyKey
	Clause  Clause
	Field   string // empty for then clauses
	Value   string
}

// classifyStatement recognizes the three policy grammars from fixed token
// positions. Lines that are too short or carry unexpected tokens are rejected.
func classifyStatement(tokens []string) (Statement, bool) {
	if len(tokens) < 4 || tokens[0] != "set" {
		return Statement{}, false
	}

	scope := model.GlobalScope
	rest := tokens[1:]
	grammar := GlobalZonePair
	if rest[0] == "logical-systems" {
		if len(rest) < 3 {
			return Statement{}, false
		}
		scope = rest[1]
		rest = rest[2:]
		grammar = LogicalSystemZonePair
	}
	if len(rest) < 3 || rest[0] != "security" || rest[1] != "policies" {
		return Statement{}, false
	}
	rest = rest[2:]

	key := model.PolicyKey{Scope: scope}
	switch rest[0] {
	case "from-zone":
		if len(rest) < 4 || rest[2] != "to-zone" {
			return Statement{}, false
		}
		key.FromZone, key.ToZone = rest[1], rest[3]
		rest = rest[4:]
	case "global":
		grammar = GlobalToGlobal
		rest = rest[1:]
	default:
		return Statement{}, false
	}

	// "policy" is a keyword unless it is itself the name in the short form.
	if len(rest) > 1 && rest[0] == "policy" && rest[1] != string(ClauseMatch) && rest[1] != string(ClauseThen) {
		rest = rest[1:]
	}
	if len(rest) < 3 {
		return Statement{}, false
	}
	key.Name = rest[0]

	stmt := Statement{Grammar: grammar, Key: key, Clause: Clause(rest[1])}
	switch stmt.Clause {
	case ClauseMatch:
		if len(rest) < 4 {
			return Statement{}, false
		}
		stmt.Field, stmt.Value = rest[2], rest[3]
	case ClauseThen:
		stmt.Value = rest[2]
	default:
		return Statement{}, false
	}
	return stmt, true
}

// PolicyTable accumulates policies across scattered statements, keyed by the
// full four-part key.
type PolicyTable struct {
	policies []*model.Policy
	index    map[model.PolicyKey]int
	logger   *slog.Logger
}

func NewPolicyTable(logger *slog.Logger) *PolicyTable {
	if logger == nil {
		logger = slog.Default()
	}
	return &PolicyTable{
		index:  make(map[model.PolicyKey]int),
		logger: logger,
	}
}

// Policies returns the accumulated policies in first-seen order.
func (t *PolicyTable) Policies() []*model.Policy {
	return t.policies
}

func (t *PolicyTable) lookup(key model.PolicyKey) (*model.Policy, bool) {
	if i, ok := t.index[key]; ok {
		return t.policies[i], true
	}
	return nil, false
}

func (t *PolicyTable) create(key model.PolicyKey) *model.Policy {
	p := &model.Policy{Key: key}
	t.index[key] = len(t.policies)
	t.policies = append(t.policies, p)
	return p
}

// Apply folds one statement into the table.
func (t *PolicyTable) Apply(stmt Statement) {
	p, found := t.lookup(stmt.Key)

	if stmt.Clause == ClauseThen {
		if !found {
			// A global-to-global action never opens a policy of its own.
			if stmt.Grammar == GlobalToGlobal {
				t.logger.Debug("Dropping action for unknown global policy", "policy", stmt.Key.Name, "action", stmt.Value)
				return
			}
			p = t.create(stmt.Key)
		}
		p.Action = append(p.Action, stmt.Value)
		return
	}

	if !found {
		p = t.create(stmt.Key)
	}
	field := matchField(p, stmt)
	if field == nil {
		t.logger.Debug("Ignoring unsupported match field", "policy", stmt.Key.Name, "field", stmt.Field)
		return
	}
	*field = append(*field, stmt.Value)
}

func matchField(p *model.Policy, stmt Statement) *[]string {
	switch stmt.Field {
	case model.FieldSourceAddress:
		return &p.SourceAddress
	case model.FieldDestinationAddress:
		return &p.DestinationAddress
	case model.FieldApplication:
		return &p.Application
	case model.FieldSourceIdentity:
		return &p.SourceIdentity
	}
	if stmt.Grammar == GlobalToGlobal {
		switch stmt.Field {
		case model.FieldFromZone:
			return &p.GlobalFromZone
		case model.FieldToZone:
			return &p.GlobalToZone
		}
	}
	return nil
}

// ParsePolicies runs the policy state machine over lines. Only lines starting
// with "set " are considered.
func ParsePolicies(lines []string, logger *slog.Logger) []*model.Policy {
	table := NewPolicyTable(logger)
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if !strings.HasPrefix(line, "set ") {
			continue
		}
		if stmt, ok := classifyStatement(strings.Fields(line)); ok {
			table.Apply(stmt)
		}
	}
	return table.Policies()
}
