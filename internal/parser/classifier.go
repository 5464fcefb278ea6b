package parser

import (
	"regexp"
	"strings"
)

// Kind tags the shape a configuration line was recognized as.
type Kind int

const (
	NoMatch Kind = iota
	AddressObject
	HostnameBinding
	AddressSetStart
	AddressSetMember
	AddressSetEnd
	ApplicationStart
	ApplicationSetStart
	ApplicationPortTerm
	ApplicationPortDirect
	ApplicationProtocol
	ApplicationSetMember
	BlockEnd
	PolicyMatch
	PolicyAction
)

var kindNames = map[Kind]string{
	NoMatch:               "no-match",
	AddressObject:         "address-object",
	HostnameBinding:       "hostname-binding",
	AddressSetStart:       "address-set-start",
	AddressSetMember:      "address-set-member",
	AddressSetEnd:         "address-set-end",
	ApplicationStart:      "application-start",
	ApplicationSetStart:   "application-set-start",
	ApplicationPortTerm:   "application-port-term",
	ApplicationPortDirect: "application-port-direct",
	ApplicationProtocol:   "application-protocol",
	ApplicationSetMember:  "application-set-member",
	BlockEnd:              "block-end",
	PolicyMatch:           "policy-match",
	PolicyAction:          "policy-action",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Event is the classification of a single line. Name and Value are filled
// according to Kind: for block-scoped kinds Name is the enclosing
// set/application. Statement is set for PolicyMatch and PolicyAction.
type Event struct {
	Kind      Kind
	Name      string
	Value     string
	Protocol  string
	Statement *Statement
}

// Set-style statements. The optional logical-systems prefix is folded into
// the same per-file book.
var (
	setAddressRx    = regexp.MustCompile(`^set (?:logical-systems \S+ )?security address-book \S+ address (\S+) (.+)$`)
	setAddressSetRx = regexp.MustCompile(`^set (?:logical-systems \S+ )?security address-book \S+ address-set (\S+) (?:address|address-set) (\S+)`)
	setAppPortRx    = regexp.MustCompile(`^set (?:logical-systems \S+ )?applications application (\S+) (?:term \S+ )?(?:protocol (\S+) )?destination-port (\S+)`)
	setAppProtoRx   = regexp.MustCompile(`^set (?:logical-systems \S+ )?applications application (\S+) (?:term \S+ )?protocol (\S+)`)
	setAppSetRx     = regexp.MustCompile(`^set (?:logical-systems \S+ )?applications application-set (\S+) (?:application|application-set) (\S+)`)
)

// Block-style statements.
var (
	hostnameRx      = regexp.MustCompile(`^address\s+(\S+)\s+([\d./]+|[0-9A-Fa-f]*:[0-9A-Fa-f:./]+);`)
	addressSetRx    = regexp.MustCompile(`^address-set\s+(\S+)\s*\{`)
	addressItemRx   = regexp.MustCompile(`^(?:address|address-set)\s+(\S+);`)
	appStartRx      = regexp.MustCompile(`^application\s+(\S+)\s*\{`)
	appSetStartRx   = regexp.MustCompile(`^application-set\s+(\S+)\s*\{`)
	appSetItemRx    = regexp.MustCompile(`^(?:application|application-set)\s+(\S+);`)
	termPortRx      = regexp.MustCompile(`(?i)^term\s+\S+\s+protocol\s+(\S+)\s+destination-port\s+([^\s;]+).*;`)
	directPortRx    = regexp.MustCompile(`(?i)^destination-port\s+(\S+);`)
	blockProtocolRx = regexp.MustCompile(`(?i)^protocol\s+(\S+);`)
)

// Classifier recognizes one trimmed line at a time. It keeps only the names
// of the currently open address-set, application and application-set blocks.
type Classifier struct {
	addressSet string
	app        string
	appSet     string
}

func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify returns the tagged match for line. Lines of no known shape yield
// an Event with Kind NoMatch.
func (c *Classifier) Classify(line string) Event {
	line = strings.TrimSpace(line)
	if line == "" {
		return Event{Kind: NoMatch}
	}
	if strings.HasPrefix(line, "set ") {
		return classifySetLine(line)
	}

	if m := hostnameRx.FindStringSubmatch(line); m != nil {
		return Event{Kind: HostnameBinding, Name: m[1], Value: m[2]}
	}
	if ev, ok := c.classifyAddressBlock(line); ok {
		return ev
	}
	return c.classifyApplicationBlock(line)
}

func classifySetLine(line string) Event {
	if m := setAddressSetRx.FindStringSubmatch(line); m != nil {
		return Event{Kind: AddressSetMember, Name: m[1], Value: m[2]}
	}
	if m := setAddressRx.FindStringSubmatch(line); m != nil {
		if value, ok := addressValue(strings.Fields(m[2])); ok {
			return Event{Kind: AddressObject, Name: m[1], Value: value}
		}
		return Event{Kind: NoMatch}
	}
	if m := setAppSetRx.FindStringSubmatch(line); m != nil {
		return Event{Kind: ApplicationSetMember, Name: m[1], Value: m[2]}
	}
	if m := setAppPortRx.FindStringSubmatch(line); m != nil {
		if m[2] != "" {
			return Event{Kind: ApplicationPortTerm, Name: m[1], Value: m[3], Protocol: m[2]}
		}
		return Event{Kind: ApplicationPortDirect, Name: m[1], Value: m[3]}
	}
	if m := setAppProtoRx.FindStringSubmatch(line); m != nil {
		return Event{Kind: ApplicationProtocol, Name: m[1], Protocol: m[2]}
	}
	if stmt, ok := classifyStatement(strings.Fields(line)); ok {
		kind := PolicyMatch
		if stmt.Clause == ClauseThen {
			kind = PolicyAction
		}
		return Event{Kind: kind, Name: stmt.Key.Name, Value: stmt.Value, Statement: &stmt}
	}
	return Event{Kind: NoMatch}
}

// addressValue picks the address literal out of the tokens following
// "address <name>".
func addressValue(fields []string) (string, bool) {
	if len(fields) == 0 {
		return "", false
	}
	switch fields[0] {
	case "description":
		return "", false
	case "range-address":
		if len(fields) >= 4 && fields[2] == "to" {
			return fields[1] + "-" + fields[3], true
		}
		return "", false
	case "dns-name", "wildcard-address":
		if len(fields) >= 2 {
			return fields[1], true
		}
		return "", false
	}
	return fields[0], true
}

func (c *Classifier) classifyAddressBlock(line string) (Event, bool) {
	if c.addressSet == "" {
		if m := addressSetRx.FindStringSubmatch(line); m != nil {
			c.addressSet = m[1]
			return Event{Kind: AddressSetStart, Name: m[1]}, true
		}
		return Event{}, false
	}
	if line == "}" {
		name := c.addressSet
		c.addressSet = ""
		return Event{Kind: AddressSetEnd, Name: name}, true
	}
	if m := addressItemRx.FindStringSubmatch(line); m != nil {
		return Event{Kind: AddressSetMember, Name: c.addressSet, Value: m[1]}, true
	}
	return Event{Kind: NoMatch}, true
}

func (c *Classifier) classifyApplicationBlock(line string) Event {
	switch {
	case c.app != "":
		if line == "}" {
			name := c.app
			c.app = ""
			return Event{Kind: BlockEnd, Name: name}
		}
		if m := termPortRx.FindStringSubmatch(line); m != nil {
			return Event{Kind: ApplicationPortTerm, Name: c.app, Value: m[2], Protocol: m[1]}
		}
		if m := directPortRx.FindStringSubmatch(line); m != nil {
			return Event{Kind: ApplicationPortDirect, Name: c.app, Value: m[1]}
		}
		if m := blockProtocolRx.FindStringSubmatch(line); m != nil {
			return Event{Kind: ApplicationProtocol, Name: c.app, Protocol: m[1]}
		}
	case c.appSet != "":
		if line == "}" {
			name := c.appSet
			c.appSet = ""
			return Event{Kind: BlockEnd, Name: name}
		}
		if m := appSetItemRx.FindStringSubmatch(line); m != nil {
			return Event{Kind: ApplicationSetMember, Name: c.appSet, Value: m[1]}
		}
	default:
		if m := appStartRx.FindStringSubmatch(line); m != nil {
			c.app = m[1]
			return Event{Kind: ApplicationStart, Name: m[1]}
		}
		if m := appSetStartRx.FindStringSubmatch(line); m != nil {
			c.appSet = m[1]
			return Event{Kind: ApplicationSetStart, Name: m[1]}
		}
	}
	return Event{Kind: NoMatch}
}
