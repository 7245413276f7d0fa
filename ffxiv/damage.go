package ffxiv

import "strings"

const (
	DamageTypePhysical = "Physical"
	DamageTypeMagical  = "Magical"
	DamageTypeUnknown  = "unknown"

	VulnerabilityUp = "vulnerability up"
)

var damageTypes = map[int]string{
	128:  DamageTypePhysical,
	1024: DamageTypeMagical,
}

// DamageType maps an FFLogs ability school to its display name.
func DamageType(typeID int) string {
	if name, ok := damageTypes[typeID]; ok {
		return name
	}
	return DamageTypeUnknown
}

func IsVulnerabilityUp(auraName string) bool {
	return strings.EqualFold(strings.TrimSpace(auraName), VulnerabilityUp)
}
