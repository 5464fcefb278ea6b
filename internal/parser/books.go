package parser

import "junos-ppsm/internal/model"

// BuildBooks folds the classified lines into a fresh address book and
// application book in a single pass.
func BuildBooks(lines []string) (*model.AddressBook, *model.ApplicationBook) {
	addrs := model.NewAddressBook()
	apps := model.NewApplicationBook()
	c := NewClassifier()

	for _, line := range lines {
		ev := c.Classify(line)
		switch ev.Kind {
		case AddressObject:
			addrs.AddObject(ev.Name, ev.Value)
		case HostnameBinding:
			addrs.BindHostname(ev.Name, ev.Value)
		case AddressSetMember:
			addrs.AddSetMember(ev.Name, ev.Value)
		case ApplicationStart:
			apps.Declare(ev.Name)
		case ApplicationPortTerm:
			apps.AddPort(ev.Name, ev.Value)
			apps.AddProtocol(ev.Name, ev.Protocol)
		case ApplicationPortDirect:
			apps.AddPort(ev.Name, ev.Value)
		case ApplicationProtocol:
			apps.AddProtocol(ev.Name, ev.Protocol)
		case ApplicationSetMember:
			apps.AddSetMember(ev.Name, ev.Value)
		}
	}
	return addrs, apps
}
