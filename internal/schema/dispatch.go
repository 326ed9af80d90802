package schema

import "validator-bench/internal/models"

// DispatchDocument walks a decoded JSON document and dispatches its
// records. It performs no validation: callers either validated doc
// already or deliberately skip validation. Shapes it cannot walk are
// ignored.
func DispatchDocument(doc any, onValid DispatchFunc) {
	m, ok := doc.(map[string]any)
	if !ok {
		return
	}
	gmac, _ := m["gmac"].(string)

	switch m["msg"] {
	case models.MsgAdvData:
		records, _ := m["obj"].([]any)
		for _, r := range records {
			rec, ok := r.(map[string]any)
			if !ok {
				continue
			}
			t, ok := rec["type"].(float64)
			if !ok || t != float64(int(t)) {
				continue
			}
			if kind, ok := models.KindForType(int(t)); ok {
				onValid(gmac, kind, rec)
			}
		}
	case models.MsgAlive:
		onValid(gmac, models.KindAlive, m)
	}
}
