package models

import (
	"encoding/json"
	"testing"
)

func TestRecordType_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    RecordType
		wantErr bool
	}{
		{in: `1`, want: 1},
		{in: `1.0`, want: 1},
		{in: `8e0`, want: 8},
		{in: `-3`, want: -3},
		{in: `1.5`, wantErr: true},
		{in: `"1"`, wantErr: true},
		{in: `1e20`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var got RecordType
			err := json.Unmarshal([]byte(tt.in), &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Unmarshal(%s) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestButtonAdv1_IntegralFloatType(t *testing.T) {
	var rec ButtonAdv1
	if err := json.Unmarshal([]byte(`{"type":1.0,"dmac":"D1","time":"t"}`), &rec); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if kind, ok := KindForType(int(rec.Type)); !ok || kind != KindAdv1 {
		t.Errorf("KindForType(%d) = %q, %v", rec.Type, kind, ok)
	}
}
