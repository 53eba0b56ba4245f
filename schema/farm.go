package schema

// Collection pairs a collection name with the JSON Schema its records must
// satisfy. A nil Schema accepts any record.
type Collection struct {
	Name   string
	Schema map[string]any
}

func nonEmpty() map[string]any {
	return map[string]any{"type": "string", "minLength": float64(1)}
}

func object(required []string, props map[string]any) map[string]any {
	req := make([]any, len(required))
	for i, r := range required {
		req[i] = r
	}
	return map[string]any{
		"type":       "object",
		"required":   req,
		"properties": props,
	}
}

// farm lists the recognized collections. The first four are the original
// core entities; the rest are the record books added alongside them.
var farm = []Collection{
	{Name: "crops", Schema: object([]string{"crop"}, map[string]any{
		"crop":         nonEmpty(),
		"field":        map[string]any{"type": "string"},
		"variety":      map[string]any{"type": "string"},
		"plantingDate": map[string]any{"type": "string"},
		"harvestDate":  map[string]any{"type": "string"},
	})},
	{Name: "livestock", Schema: object([]string{"animal"}, map[string]any{
		"animal":    nonEmpty(),
		"tag":       map[string]any{"type": "string"},
		"breed":     map[string]any{"type": "string"},
		"birthDate": map[string]any{"type": "string"},
		"gender":    map[string]any{"type": "string"},
	})},
	{Name: "inventory", Schema: object([]string{"item_name", "category", "quantity", "condition"}, map[string]any{
		"item_name": nonEmpty(),
		"category":  nonEmpty(),
		"quantity":  map[string]any{"type": "integer", "minimum": float64(0)},
		"condition": nonEmpty(),
	})},
	{Name: "financials", Schema: object([]string{"date", "type", "amount"}, map[string]any{
		"date":        nonEmpty(),
		"type":        map[string]any{"type": "string", "enum": []any{"Income", "Expense"}},
		"amount":      map[string]any{"type": "number"},
		"description": map[string]any{"type": "string"},
		"category":    map[string]any{"type": "string"},
	})},
	{Name: "health", Schema: object([]string{"animal_tag", "date"}, map[string]any{
		"animal_tag":  nonEmpty(),
		"date":        nonEmpty(),
		"diagnosis":   map[string]any{"type": "string"},
		"observation": map[string]any{"type": "object"},
		"vital_signs": map[string]any{"type": "object"},
		"treatment":   map[string]any{"type": "object"},
		"follow_up":   map[string]any{"type": "object"},
	})},
	{Name: "vaccination", Schema: object([]string{"animal_tag", "vaccine_name"}, map[string]any{
		"animal_tag":   nonEmpty(),
		"vaccine_name": nonEmpty(),
	})},
	{Name: "breeding", Schema: object([]string{"animal_tag", "breeding_date"}, map[string]any{
		"animal_tag":    nonEmpty(),
		"breeding_date": nonEmpty(),
	})},
	{Name: "fields", Schema: object([]string{"name"}, map[string]any{
		"name": nonEmpty(),
	})},
	{Name: "equipment", Schema: object([]string{"name"}, map[string]any{
		"name":  nonEmpty(),
		"model": map[string]any{"type": "string"},
	})},
	{Name: "clients", Schema: object([]string{"name"}, map[string]any{
		"name": nonEmpty(),
	})},
	{Name: "feed"},
	{Name: "lab_results"},
	{Name: "soil_analysis"},
	{Name: "irrigation"},
	{Name: "scouting"},
	{Name: "pest_control"},
	{Name: "harvest_log"},
	{Name: "yield"},
	{Name: "production"},
	{Name: "budget"},
	{Name: "invoicing"},
	{Name: "supplies"},
	{Name: "harvested_goods"},
}

// Farm returns the recognized farm collections in registration order.
func Farm() []Collection {
	return append([]Collection(nil), farm...)
}

// Names returns the recognized collection names in registration order.
func Names() []string {
	names := make([]string, len(farm))
	for i, c := range farm {
		names[i] = c.Name
	}
	return names
}

// Lookup returns the schema registered for name.
func Lookup(name string) (map[string]any, bool) {
	for _, c := range farm {
		if c.Name == name {
			return c.Schema, true
		}
	}
	return nil, false
}
