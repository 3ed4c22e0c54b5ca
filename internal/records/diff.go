package records

// Desired is the metadata a publish wants stored.
type Desired struct {
	Description string
	Src         string
	// PriceRef is nil when monetization did not change; a pointer to "" clears it.
	PriceRef *string
}

// Diff returns the changes that turn current into desired, in a fixed field
// order. An empty result means no write is needed.
func Diff(current Record, desired Desired) []Change {
	var changes []Change
	if desired.Description != current.Description {
		changes = append(changes, Change{Field: FieldDescription, Value: desired.Description})
	}
	if desired.Src != current.Src {
		changes = append(changes, Change{Field: FieldSrc, Value: desired.Src})
	}
	if desired.PriceRef != nil && *desired.PriceRef != current.PriceRef {
		if *desired.PriceRef == "" {
			changes = append(changes, Change{Field: FieldPrice, Remove: true})
		} else {
			changes = append(changes, Change{Field: FieldPrice, Value: *desired.PriceRef})
		}
	}
	return changes
}

// Apply returns r with changes applied.
func Apply(r Record, changes []Change) Record {
	for _, c := range changes {
		v := c.Value
		if c.Remove {
			v = ""
		}
		switch c.Field {
		case FieldDescription:
			r.Description = v
		case FieldSrc:
			r.Src = v
		case FieldPrice:
			r.PriceRef = v
		}
	}
	return r
}
