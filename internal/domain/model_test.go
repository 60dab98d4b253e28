package domain

import (
	"testing"
	"time"

	"github.com/provinspector-io/provinspector/internal/prov"
)

func TestProvIdentifiers(t *testing.T) {
	parent := 0

	tests := []struct {
		name    string
		subject prov.Subject
		want    string
	}{
		{
			name:    "pipeline version",
			subject: PipelineVersion{ID: 0},
			want:    "PipelineVersion?id=0",
		},
		{
			name:    "pipeline version with parent",
			subject: PipelineVersion{ID: 1, ParentID: &parent},
			want:    "PipelineVersion?id=1",
		},
		{
			name:    "pipeline version revision",
			subject: PipelineVersionRevision{UUID: "rev-1", ID: 3},
			want:    "PipelineVersionRevision?uuid=rev-1",
		},
		{
			name:    "operator",
			subject: Operator{ID: 7, Name: "Filter"},
			want:    "Operator?id=7",
		},
		{
			name:    "operator revision",
			subject: OperatorRevision{UUID: "op-rev-1", ID: 0},
			want:    "OperatorRevision?uuid=op-rev-1",
		},
		{
			name:    "connection",
			subject: Connection{ID: 9, FromOperatorID: 1, ToOperatorID: 2},
			want:    "Connection?id=9",
		},
		{
			name:    "operator run",
			subject: OperatorRun{ID: "run-1"},
			want:    "OperatorRun?id=run-1",
		},
		{
			name:    "metric stringifies its value",
			subject: Metric{Name: "loss", Value: 0.7},
			want:    "Metric?name=loss&value=0.7",
		},
		{
			name:    "pipeline version creation",
			subject: PipelineVersionCreation{UUID: "c-1"},
			want:    "PipelineVersionCreation?uuid=c-1",
		},
		{
			name:    "pipeline change",
			subject: PipelineChange{UUID: "ch-1", Type: OperatorCreation},
			want:    "PipelineChange?uuid=ch-1",
		},
		{
			name:    "operator execution",
			subject: OperatorExecution{UUID: "ex-1"},
			want:    "OperatorExecution?uuid=ex-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.subject.ProvIdentifier().String(); got != tt.want {
				t.Errorf("identifier = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProvIdentifiersEscapeValues(t *testing.T) {
	metric := Metric{Name: "f1 score", Value: 0.5}

	if got, want := metric.ProvIdentifier().String(), "Metric?name=f1+score&value=0.5"; got != want {
		t.Errorf("identifier = %q, want %q", got, want)
	}

	param := Parameter{Name: "a&b", Value: "x"}
	id := param.ProvIdentifier().String()

	if want := "Parameter?name=a%26b&value=" + HashValue("x"); id != want {
		t.Errorf("identifier = %q, want %q", id, want)
	}
}

func TestParameterIdentifierIsContentAddressed(t *testing.T) {
	a := Parameter{Name: "lr", Value: 0.1}
	b := Parameter{Name: "lr", Value: 0.1}
	c := Parameter{Name: "lr", Value: 0.2}

	if a.ProvIdentifier() != b.ProvIdentifier() {
		t.Error("equal parameters must share an identifier")
	}

	if a.ProvIdentifier() == c.ProvIdentifier() {
		t.Error("parameters with different values must not share an identifier")
	}
}

func TestPipelineVersionElement(t *testing.T) {
	el := PipelineVersion{ID: 2}.ProvElement()

	if el.Kind != prov.Entity {
		t.Errorf("Kind = %v, want Entity", el.Kind)
	}

	wantAttrs := []prov.Attribute{
		{Key: "id", Value: 2},
		{Key: prov.AttrType, Value: TypePipelineVersion},
	}

	assertAttributes(t, el.Attributes, wantAttrs)
}

func TestOperatorRunElementIsACollection(t *testing.T) {
	at := time.Unix(1700000000, 0)
	el := OperatorRun{ID: "run-1", CreatedAt: at}.ProvElement()

	wantAttrs := []prov.Attribute{
		{Key: "id", Value: "run-1"},
		{Key: "time", Value: at},
		{Key: prov.AttrType, Value: TypeOperatorRun},
		{Key: prov.AttrType, Value: TypeCollection},
	}

	assertAttributes(t, el.Attributes, wantAttrs)
}

func TestConnectionElementStringifiesEndpoints(t *testing.T) {
	el := Connection{ID: 9, FromOperatorID: 1, ToOperatorID: 2}.ProvElement()

	wantAttrs := []prov.Attribute{
		{Key: "id", Value: 9},
		{Key: "from_operator_id", Value: "1"},
		{Key: "to_operator_id", Value: "2"},
		{Key: prov.AttrType, Value: TypeConnection},
	}

	assertAttributes(t, el.Attributes, wantAttrs)
}

func TestActivityElementsCarryStartAndEndTime(t *testing.T) {
	at := time.Unix(1700000000, 500000000)

	tests := []struct {
		name     string
		subject  prov.Subject
		wantType string
		wantKind prov.Kind
	}{
		{
			name:     "pipeline version creation",
			subject:  PipelineVersionCreation{UUID: "c-1", Time: at},
			wantType: TypePipelineVersionCreation,
			wantKind: prov.Activity,
		},
		{
			name:     "pipeline change",
			subject:  PipelineChange{UUID: "ch-1", Type: ConnectionDeletion, Time: at},
			wantType: TypePipelineChange,
			wantKind: prov.Activity,
		},
		{
			name:     "operator execution",
			subject:  OperatorExecution{UUID: "ex-1", StepType: OnOpExecuted, Time: at},
			wantType: TypeOperatorExecution,
			wantKind: prov.Activity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := tt.subject.ProvElement()

			if el.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", el.Kind, tt.wantKind)
			}

			var start, end, typ bool

			for _, attr := range el.Attributes {
				switch {
				case attr.Key == prov.AttrStartTime && attr.Value == at:
					start = true
				case attr.Key == prov.AttrEndTime && attr.Value == at:
					end = true
				case attr.Key == prov.AttrType && attr.Value == tt.wantType:
					typ = true
				}
			}

			if !start || !end {
				t.Error("activity is missing start or end time")
			}

			if !typ {
				t.Errorf("activity is missing prov:type %q", tt.wantType)
			}
		})
	}
}

func TestPipelineChangeElementRecordsSubtype(t *testing.T) {
	el := PipelineChange{UUID: "ch-1", Type: OperatorModification}.ProvElement()

	assertAttribute(t, el.Attributes, "pipeline_change_type", "OperatorModification")
}

func TestOperatorExecutionElementRecordsStepType(t *testing.T) {
	el := OperatorExecution{UUID: "ex-1", StepType: OnTupleProcessed}.ProvElement()

	// Executions reuse the pipeline_change_type key for their step type.
	assertAttribute(t, el.Attributes, "pipeline_change_type", "OnTupleProcessed")
}

func TestTimeFromSeconds(t *testing.T) {
	tests := []struct {
		name string
		sec  float64
		want time.Time
	}{
		{name: "epoch", sec: 0, want: time.Unix(0, 0)},
		{name: "whole seconds", sec: 1700000000, want: time.Unix(1700000000, 0)},
		{name: "fractional seconds", sec: 1700000000.5, want: time.Unix(1700000000, 500000000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TimeFromSeconds(tt.sec); !got.Equal(tt.want) {
				t.Errorf("TimeFromSeconds(%v) = %v, want %v", tt.sec, got, tt.want)
			}
		})
	}
}

func assertAttributes(t *testing.T, got, want []prov.Attribute) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("len(attributes) = %d, want %d", len(got), len(want))
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("attribute %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func assertAttribute(t *testing.T, attrs []prov.Attribute, key string, want any) {
	t.Helper()

	for _, attr := range attrs {
		if attr.Key == key {
			if attr.Value != want {
				t.Errorf("attribute %q = %v, want %v", key, attr.Value, want)
			}

			return
		}
	}

	t.Errorf("attribute %q not found", key)
}
