package model

// GlobalScope is the scope of policies outside any logical system.
const GlobalScope = "GLOBAL"

// AnyAddress matches every address and is never expanded.
const AnyAddress = "any"

// Policy match field names as they appear in "set ... match <field> <value>".
const (
	FieldSourceAddress      = "source-address"
	FieldDestinationAddress = "destination-address"
	FieldApplication        = "application"
	FieldSourceIdentity     = "source-identity"
	FieldFromZone           = "from-zone"
	FieldToZone             = "to-zone"
)

type AddressBook struct {
	Objects      map[string][]string // name -> CIDR/IP literals, in declaration order
	HostnameToIP map[string]string
	Sets         map[string][]string
	SetOrder     []string // set names in first-seen order
}

func NewAddressBook() *AddressBook {
	return &AddressBook{
		Objects:      make(map[string][]string),
		HostnameToIP: make(map[string]string),
		Sets:         make(map[string][]string),
	}
}

func (b *AddressBook) AddObject(name, value string) {
	b.Objects[name] = append(b.Objects[name], value)
}

// BindHostname overwrites any earlier binding for name.
func (b *AddressBook) BindHostname(name, ip string) {
	b.HostnameToIP[name] = ip
}

func (b *AddressBook) AddSetMember(set, member string) {
	if _, ok := b.Sets[set]; !ok {
		b.SetOrder = append(b.SetOrder, set)
	}
	b.Sets[set] = append(b.Sets[set], member)
}

type ApplicationBook struct {
	Ports     map[string][]string // application -> distinct destination ports, first occurrence wins
	Protocols map[string][]string
	Sets      map[string][]string
	AppOrder  []string
	SetOrder  []string
}

func NewApplicationBook() *ApplicationBook {
	return &ApplicationBook{
		Ports:     make(map[string][]string),
		Protocols: make(map[string][]string),
		Sets:      make(map[string][]string),
	}
}

// Declare registers an application so that it is known even without ports.
func (b *ApplicationBook) Declare(app string) {
	if _, ok := b.Ports[app]; !ok {
		b.Ports[app] = nil
		b.AppOrder = append(b.AppOrder, app)
	}
}

func (b *ApplicationBook) AddPort(app, port string) {
	b.Declare(app)
	if !contains(b.Ports[app], port) {
		b.Ports[app] = append(b.Ports[app], port)
	}
}

func (b *ApplicationBook) AddProtocol(app, proto string) {
	b.Declare(app)
	if !contains(b.Protocols[app], proto) {
		b.Protocols[app] = append(b.Protocols[app], proto)
	}
}

func (b *ApplicationBook) AddSetMember(set, member string) {
	if _, ok := b.Sets[set]; !ok {
		b.SetOrder = append(b.SetOrder, set)
	}
	b.Sets[set] = append(b.Sets[set], member)
}

// PolicyKey identifies a policy. Global-to-global policies leave both zones empty.
type PolicyKey struct {
	Scope    string
	FromZone string
	ToZone   string
	Name     string
}

type Policy struct {
	Key                PolicyKey
	SourceAddress      []string
	DestinationAddress []string
	Application        []string
	SourceIdentity     []string
	GlobalFromZone     []string
	GlobalToZone       []string
	Action             []string
	SourceIP           []string
	DestinationIP      []string
}

// Clone returns a deep copy of p.
func (p *Policy) Clone() *Policy {
	return &Policy{
		Key:                p.Key,
		SourceAddress:      cloneStrings(p.SourceAddress),
		DestinationAddress: cloneStrings(p.DestinationAddress),
		Application:        cloneStrings(p.Application),
		SourceIdentity:     cloneStrings(p.SourceIdentity),
		GlobalFromZone:     cloneStrings(p.GlobalFromZone),
		GlobalToZone:       cloneStrings(p.GlobalToZone),
		Action:             cloneStrings(p.Action),
		SourceIP:           cloneStrings(p.SourceIP),
		DestinationIP:      cloneStrings(p.DestinationIP),
	}
}

// PolicyRow is one expanded policy carrying at most one application.
type PolicyRow struct {
	Key                PolicyKey
	SourceAddress      []string
	DestinationAddress []string
	Application        string
	SourceIdentity     []string
	GlobalFromZone     []string
	GlobalToZone       []string
	Action             []string
	SourceIP           []string
	DestinationIP      []string
	Ports              []string
}

// RowSet is a tabular row source keyed by header name.
type RowSet struct {
	Header  []string
	Records []map[string]string
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
