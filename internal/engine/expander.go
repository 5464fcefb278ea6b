package engine

import (
	"strings"

	"junos-ppsm/internal/model"
	"junos-ppsm/internal/resolver"
	"junos-ppsm/pkg/wellknown"
)

// Expander turns symbolic address and application references into concrete
// hostnames, IPs and ports for one configuration. Its resolvers cache per
// instance, so build a new Expander for every file.
type Expander struct {
	Addresses    *model.AddressBook
	Applications *model.ApplicationBook

	addrSets   *resolver.Resolver
	appSets    *resolver.Resolver
	predefined bool
}

type Option func(*Expander)

// WithPredefinedApplications makes Ports fall back to the built-in junos-*
// application table when the configuration does not define the name.
func WithPredefinedApplications() Option {
	return func(e *Expander) {
		e.predefined = true
	}
}

func NewExpander(addrs *model.AddressBook, apps *model.ApplicationBook, opts ...Option) *Expander {
	if addrs == nil {
		addrs = model.NewAddressBook()
	}
	if apps == nil {
		apps = model.NewApplicationBook()
	}
	e := &Expander{
		Addresses:    addrs,
		Applications: apps,
		addrSets:     resolver.New(addrs.Sets),
		appSets:      resolver.New(apps.Sets),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExpandHostnames replaces address-set names with their resolved members.
// Names that are not sets pass through. Duplicates are dropped.
func (e *Expander) ExpandHostnames(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	if isAny(names) {
		return []string{model.AnyAddress}
	}
	return e.addrSets.ResolveAll(names)
}

// ExpandIPs maps each name to the literals of its address object, then to its
// hostname binding, and finally to the name itself.
func (e *Expander) ExpandIPs(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	if isAny(names) {
		return []string{model.AnyAddress}
	}
	var ips []string
	seen := make(map[string]bool)
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		if cidrs, ok := e.Addresses.Objects[n]; ok && len(cidrs) > 0 {
			ips = append(ips, cidrs...)
			continue
		}
		if ip, ok := e.Addresses.HostnameToIP[n]; ok {
			ips = append(ips, ip)
			continue
		}
		ips = append(ips, n)
	}
	return ips
}

// ExpandPolicy returns a copy of p with addresses resolved to hostnames and
// the parallel IP lists filled in. p itself is not modified.
func (e *Expander) ExpandPolicy(p *model.Policy) *model.Policy {
	out := p.Clone()
	out.SourceAddress = e.ExpandHostnames(p.SourceAddress)
	out.DestinationAddress = e.ExpandHostnames(p.DestinationAddress)
	out.SourceIP = e.ExpandIPs(out.SourceAddress)
	out.DestinationIP = e.ExpandIPs(out.DestinationAddress)
	return out
}

// ExpandPolicies expands every policy and fans it out into one row per
// application, with ports looked up directly for each application.
func (e *Expander) ExpandPolicies(policies []*model.Policy) []model.PolicyRow {
	var expanded []*model.Policy
	for _, p := range policies {
		expanded = append(expanded, e.ExpandPolicy(p))
	}
	rows := FanOut(expanded)
	for i := range rows {
		if rows[i].Application != "" {
			rows[i].Ports = e.Ports(rows[i].Application)
		}
	}
	return rows
}

// FanOut emits one row per application value. A policy without applications
// yields a single row with an empty application. Rows never share slices.
func FanOut(policies []*model.Policy) []model.PolicyRow {
	var rows []model.PolicyRow
	for _, p := range policies {
		if len(p.Application) == 0 {
			rows = append(rows, newRow(p, ""))
			continue
		}
		for _, app := range p.Application {
			rows = append(rows, newRow(p, app))
		}
	}
	return rows
}

func newRow(p *model.Policy, app string) model.PolicyRow {
	c := p.Clone()
	return model.PolicyRow{
		Key:                c.Key,
		SourceAddress:      c.SourceAddress,
		DestinationAddress: c.DestinationAddress,
		Application:        app,
		SourceIdentity:     c.SourceIdentity,
		GlobalFromZone:     c.GlobalFromZone,
		GlobalToZone:       c.GlobalToZone,
		Action:             c.Action,
		SourceIP:           c.SourceIP,
		DestinationIP:      c.DestinationIP,
	}
}

// Ports looks the application up directly. Application-set names are not
// aggregated here; use SetPorts for that.
func (e *Expander) Ports(app string) []string {
	if ports, ok := e.Applications.Ports[app]; ok {
		return append([]string(nil), ports...)
	}
	if e.predefined {
		if entries, ok := wellknown.GetApplication(app); ok {
			var ports []string
			for _, entry := range entries {
				if entry.Port != "" && !containsString(ports, entry.Port) {
					ports = append(ports, entry.Port)
				}
			}
			return ports
		}
	}
	return nil
}

// Protocols returns the protocols recorded for a directly defined application.
func (e *Expander) Protocols(app string) []string {
	if protos, ok := e.Applications.Protocols[app]; ok {
		return append([]string(nil), protos...)
	}
	if e.predefined {
		if entries, ok := wellknown.GetApplication(app); ok {
			var protos []string
			for _, entry := range entries {
				if !containsString(protos, entry.Protocol) {
					protos = append(protos, entry.Protocol)
				}
			}
			return protos
		}
	}
	return nil
}

func (e *Expander) IsApplicationSet(name string) bool {
	return e.appSets.IsSet(name)
}

// SetMembers returns the leaf applications of an application-set.
func (e *Expander) SetMembers(name string) []string {
	return e.appSets.Resolve(name)
}

// SetPorts returns the de-duplicated union of the ports of every application
// an application-set resolves to, in member order.
func (e *Expander) SetPorts(name string) []string {
	var ports []string
	for _, app := range e.appSets.Resolve(name) {
		for _, port := range e.Ports(app) {
			if !containsString(ports, port) {
				ports = append(ports, port)
			}
		}
	}
	return ports
}

// ParseListCell splits a bracketed list literal such as ['a', 'b'] into its
// items. A bare value is a single item; "[]" is empty.
func ParseListCell(cell string) []string {
	cell = strings.TrimSpace(cell)
	if strings.HasPrefix(cell, "[") && strings.HasSuffix(cell, "]") {
		inner := cell[1 : len(cell)-1]
		if inner == "" {
			return nil
		}
		parts := strings.Split(inner, ",")
		items := make([]string, 0, len(parts))
		for _, part := range parts {
			items = append(items, strings.Trim(strings.TrimSpace(part), `'"`))
		}
		return items
	}
	return []string{cell}
}

// lookupSet finds a set by exact name, then by the first case-insensitive
// match in declaration order.
func (e *Expander) lookupSet(item string) (string, bool) {
	if e.addrSets.IsSet(item) {
		return item, true
	}
	for _, name := range e.Addresses.SetOrder {
		if strings.EqualFold(name, item) {
			return name, true
		}
	}
	return "", false
}

func (e *Expander) expandItems(cell string) []string {
	var expanded []string
	for _, item := range ParseListCell(cell) {
		if set, ok := e.lookupSet(item); ok {
			expanded = append(expanded, e.addrSets.Resolve(set)...)
			continue
		}
		expanded = append(expanded, item)
	}
	return expanded
}

// ExpandCell resolves every set referenced by a list cell to its hostnames.
// Unknown items are kept verbatim.
func (e *Expander) ExpandCell(cell string) string {
	return strings.Join(e.expandItems(cell), ", ")
}

// ExpandCellWithIPs is ExpandCell followed by a hostname to IP mapping that
// keeps the hostname when no binding exists.
func (e *Expander) ExpandCellWithIPs(cell string) string {
	items := e.expandItems(cell)
	for i, item := range items {
		if ip, ok := e.Addresses.HostnameToIP[item]; ok {
			items[i] = ip
		}
	}
	return strings.Join(items, ", ")
}

// ExpandRecord returns a copy of rec with the address and IP columns expanded.
func (e *Expander) ExpandRecord(rec map[string]string) map[string]string {
	out := make(map[string]string, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	for _, col := range []string{model.FieldSourceAddress, model.FieldDestinationAddress} {
		if v, ok := rec[col]; ok {
			out[col] = e.ExpandCell(v)
		}
	}
	for _, col := range []string{"source-ip", "destination-ip"} {
		if v, ok := rec[col]; ok {
			out[col] = e.ExpandCellWithIPs(v)
		}
	}
	return out
}

func isAny(names []string) bool {
	return len(names) == 1 && names[0] == model.AnyAddress
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
