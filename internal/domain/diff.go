package domain

import "maps"

// Property names a mutable attribute of a Host.
type Property string

const (
	PropertyGroups        Property = "groups"
	PropertyTemplates     Property = "templates"
	PropertyMacros        Property = "macros"
	PropertyWebChecks     Property = "webServices"
	PropertyIP            Property = "ipAddress"
	PropertyUseIP         Property = "usePeerIp"
	PropertyPort          Property = "port"
	PropertyInterfaceType Property = "interfaceType"
	PropertyProxy         Property = "proxy"
	PropertyInventoryMode Property = "inventoryMode"
)

// Properties lists every mutable property in application order.
var Properties = []Property{
	PropertyGroups,
	PropertyTemplates,
	PropertyMacros,
	PropertyWebChecks,
	PropertyIP,
	PropertyUseIP,
	PropertyPort,
	PropertyInterfaceType,
	PropertyProxy,
	PropertyInventoryMode,
}

// Diff returns the properties of current that do not match desired, in
// application order. It never touches the network and never mutates its
// arguments. An empty result means the host is converged.
func Diff(desired, current Host) []Property {
	var changed []Property
	for _, p := range Properties {
		if !InSync(p, desired, current) {
			changed = append(changed, p)
		}
	}
	return changed
}

// InSync reports whether a single property of current matches desired.
// Unmanaged properties (nil on the desired side) are always in sync.
func InSync(p Property, desired, current Host) bool {
	switch p {
	case PropertyGroups:
		return SameSet(desired.Groups, current.Groups)
	case PropertyTemplates:
		return desired.Templates == nil || SameSet(desired.Templates, current.Templates)
	case PropertyMacros:
		return desired.Macros == nil || SameMacros(desired.Macros, current.Macros)
	case PropertyWebChecks:
		return desired.WebChecks == nil || SameWebChecks(desired.WebChecks, current.WebChecks)
	case PropertyIP:
		return desired.Interface.IP == current.Interface.IP
	case PropertyUseIP:
		return desired.Interface.UseIP == current.Interface.UseIP
	case PropertyPort:
		return desired.Interface.Port == current.Interface.Port
	case PropertyInterfaceType:
		return desired.Interface.Type == current.Interface.Type
	case PropertyProxy:
		return desired.Proxy == current.Proxy
	case PropertyInventoryMode:
		return desired.InventoryMode == current.InventoryMode
	default:
		return true
	}
}

// SameSet compares two string slices as sets.
func SameSet(a, b []string) bool {
	as, bs := toSet(a), toSet(b)
	if len(as) != len(bs) {
		return false
	}
	for k := range as {
		if _, ok := bs[k]; !ok {
			return false
		}
	}
	return true
}

// SameMacros compares two macro maps. nil and empty are equal.
func SameMacros(a, b map[string]string) bool {
	return maps.Equal(a, b)
}

// SameWebChecks compares two web check lists as multisets of structural
// entries: check order is irrelevant, step order is not.
func SameWebChecks(a, b []WebCheck) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, wa := range a {
		found := false
		for i, wb := range b {
			if !used[i] && wa.Equal(wb) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// PartitionWebChecks splits the current web checks into those structurally
// matching some desired entry (same) and those that must be deleted (stale),
// and returns the desired entries that have no match in same (create).
func PartitionWebChecks(desired, current []WebCheck) (same, stale, create []WebCheck) {
	for _, cur := range current {
		if containsWebCheck(desired, cur) {
			same = append(same, cur)
		} else {
			stale = append(stale, cur)
		}
	}
	for _, want := range desired {
		if !containsWebCheck(same, want) {
			create = append(create, want)
		}
	}
	return same, stale, create
}

func containsWebCheck(list []WebCheck, w WebCheck) bool {
	for _, candidate := range list {
		if candidate.Equal(w) {
			return true
		}
	}
	return false
}

func toSet(list []string) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, v := range list {
		set[v] = struct{}{}
	}
	return set
}
