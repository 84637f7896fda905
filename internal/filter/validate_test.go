package filter

import "testing"

func TestValidate_CleanModel(t *testing.T) {
	res := Validate(Model{Search: "a", From: "2026-01-01", To: "2026-02-01"}, "")
	if !res.Valid || len(res.Errors) != 0 {
		t.Errorf("clean model should validate, got %+v", res)
	}
}

func TestValidate_DateOrder(t *testing.T) {
	m := Model{From: "2026-03-01", To: "2026-01-01"}

	res := Validate(m, "")
	if res.Valid {
		t.Fatal("inverted date range should be invalid")
	}
	if res.Errors[FieldFrom] != msgDateOrder || res.Errors[FieldTo] != msgDateOrder {
		t.Errorf("both date fields should report, got %+v", res.Errors)
	}
}

func TestValidate_DateOrderFocusTieBreak(t *testing.T) {
	m := Model{From: "2026-03-01", To: "2026-01-01"}

	res := Validate(m, FieldFrom)
	if _, ok := res.Errors[FieldFrom]; ok {
		t.Error("focused field should stay clean")
	}
	if res.Errors[FieldTo] != msgDateOrder {
		t.Errorf("counterpart should carry the error, got %+v", res.Errors)
	}
	if res.Valid {
		t.Error("tie-break must not make the model valid")
	}

	res = Validate(m, FieldTo)
	if _, ok := res.Errors[FieldTo]; ok {
		t.Error("focused field should stay clean")
	}
	if res.Errors[FieldFrom] != msgDateOrder {
		t.Errorf("counterpart should carry the error, got %+v", res.Errors)
	}
}

func TestValidate_AmountOrder(t *testing.T) {
	m := Model{MinAmount: f64(100), MaxAmount: f64(10)}

	res := Validate(m, "")
	if res.Errors[FieldMinAmount] != msgAmountOrder || res.Errors[FieldMaxAmount] != msgAmountOrder {
		t.Errorf("both amount fields should report, got %+v", res.Errors)
	}

	res = Validate(m, FieldMinAmount)
	if _, ok := res.Errors[FieldMinAmount]; ok {
		t.Error("focused min should stay clean")
	}
	if res.Errors[FieldMaxAmount] != msgAmountOrder {
		t.Errorf("max should carry the error, got %+v", res.Errors)
	}
}

func TestValidate_NegativeAmounts(t *testing.T) {
	m := Model{MinAmount: f64(-5), MaxAmount: f64(-1)}

	res := Validate(m, "")
	if res.Errors[FieldMinAmount] != msgNegative || res.Errors[FieldMaxAmount] != msgNegative {
		t.Errorf("negative amounts should each report, got %+v", res.Errors)
	}
}

func TestValidate_NegativeFocusNotSuppressed(t *testing.T) {
	// Negative errors on both sides share a message, but each side is
	// individually invalid; the tie-break still attributes to one side.
	// A single negative field must never be suppressed by focus.
	m := Model{MinAmount: f64(-5)}
	res := Validate(m, FieldMinAmount)
	if res.Errors[FieldMinAmount] != msgNegative {
		t.Errorf("lone negative min must report even when focused, got %+v", res.Errors)
	}
}

func TestValidate_SimultaneousPairs(t *testing.T) {
	m := Model{
		From:      "2026-05-01",
		To:        "2026-04-01",
		MinAmount: f64(50),
		MaxAmount: f64(5),
	}
	res := Validate(m, "")
	if len(res.Errors) != 4 {
		t.Errorf("all four fields should report, got %+v", res.Errors)
	}
}

func TestValidate_UnparseableDatesSkipComparison(t *testing.T) {
	res := Validate(Model{From: "soon", To: "later"}, "")
	if !res.Valid {
		t.Errorf("unparseable dates should not produce range errors, got %+v", res.Errors)
	}
}
