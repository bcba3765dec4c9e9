package sim

import (
	"encoding/json"
	"fmt"
)

// Payload is the closed set of structured data an Activity carries.
// Concrete variants are plain structs; encoding happens only at the
// persistence boundary via EncodePayload/DecodePayload.
type Payload interface {
	PayloadKind() string
}

type IdlePayload struct {
	Reason string `json:"reason"`
}

func (IdlePayload) PayloadKind() string { return "idle" }

type ResourceAmount struct {
	ResourceType string  `json:"resource_type"`
	Amount       float64 `json:"amount"`
}

type ManifestPayload struct {
	Items      []ResourceAmount `json:"items"`
	ContractID string           `json:"contract_id,omitempty"`
	Source     string           `json:"source,omitempty"`
	UnitPrice  float64          `json:"unit_price,omitempty"`
}

func (ManifestPayload) PayloadKind() string { return "manifest" }

type VenuePayload struct {
	VenueBuildingID string  `json:"venue_building_id"`
	ResourceType    string  `json:"resource_type,omitempty"`
	UnitPrice       float64 `json:"unit_price,omitempty"`
	Amount          float64 `json:"amount,omitempty"`
}

func (VenuePayload) PayloadKind() string { return "venue" }

type StratagemPayload struct {
	StratagemID string        `json:"stratagem_id"`
	Type        StratagemType `json:"type"`
	Step        string        `json:"step,omitempty"`
}

func (StratagemPayload) PayloadKind() string { return "stratagem" }

type PriceChangePayload struct {
	ContractIDs []string  `json:"contract_ids"`
	NewPrices   []float64 `json:"new_prices"`
}

func (PriceChangePayload) PayloadKind() string { return "price_change" }

type TargetCitizenPayload struct {
	TargetCitizenID string `json:"target_citizen_id"`
	ResourceType    string `json:"resource_type,omitempty"`
}

func (TargetCitizenPayload) PayloadKind() string { return "target_citizen" }

type ProjectPayload struct {
	BuildingType string   `json:"building_type"`
	Position     Position `json:"position"`
	Budget       float64  `json:"budget"`
}

func (ProjectPayload) PayloadKind() string { return "project" }

type payloadEnvelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func EncodePayload(p Payload) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode payload %s: %w", p.PayloadKind(), err)
	}
	return json.Marshal(payloadEnvelope{Kind: p.PayloadKind(), Data: data})
}

func DecodePayload(raw []byte) (Payload, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var env payloadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode payload envelope: %w", err)
	}
	var p Payload
	switch env.Kind {
	case "idle":
		p = &IdlePayload{}
	case "manifest":
		p = &ManifestPayload{}
	case "venue":
		p = &VenuePayload{}
	case "stratagem":
		p = &StratagemPayload{}
	case "price_change":
		p = &PriceChangePayload{}
	case "target_citizen":
		p = &TargetCitizenPayload{}
	case "project":
		p = &ProjectPayload{}
	default:
		return nil, fmt.Errorf("decode payload: unknown kind %q", env.Kind)
	}
	if err := json.Unmarshal(env.Data, p); err != nil {
		return nil, fmt.Errorf("decode payload %s: %w", env.Kind, err)
	}
	return deref(p), nil
}

func deref(p Payload) Payload {
	switch v := p.(type) {
	case *IdlePayload:
		return *v
	case *ManifestPayload:
		return *v
	case *VenuePayload:
		return *v
	case *StratagemPayload:
		return *v
	case *PriceChangePayload:
		return *v
	case *TargetCitizenPayload:
		return *v
	case *ProjectPayload:
		return *v
	}
	return p
}
