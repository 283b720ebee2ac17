package validate

import "testing"

type signupForm struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name"     validate:"required,min=2,max=50"`
	Postcode string `json:"postcode" validate:"nullable,digits=5"`
	Method   string `json:"method"   validate:"in=card,vbank,phone"`
}

func valid() signupForm {
	return signupForm{
		Email:    "a@example.com",
		Password: "long-enough",
		Name:     "Kim",
		Postcode: "04524",
		Method:   "card",
	}
}

func TestStructPasses(t *testing.T) {
	if errs := Struct(valid()); HasErrors(errs) {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestStructCatchesEachRule(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*signupForm)
		field  string
	}{
		{"missing email", func(f *signupForm) { f.Email = "" }, "email"},
		{"bad email", func(f *signupForm) { f.Email = "not-an-email" }, "email"},
		{"short password", func(f *signupForm) { f.Password = "short" }, "password"},
		{"short name", func(f *signupForm) { f.Name = "K" }, "name"},
		{"postcode not digits", func(f *signupForm) { f.Postcode = "0452a" }, "postcode"},
		{"postcode wrong length", func(f *signupForm) { f.Postcode = "452" }, "postcode"},
		{"method not in set", func(f *signupForm) { f.Method = "cash" }, "method"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := valid()
			tc.mutate(&f)
			errs := Struct(f)
			if _, ok := errs[tc.field]; !ok {
				t.Errorf("no error recorded for %s, got %v", tc.field, errs)
			}
		})
	}
}

func TestNullableSkipsEmptyValues(t *testing.T) {
	f := valid()
	f.Postcode = ""
	if errs := Struct(f); HasErrors(errs) {
		t.Errorf("empty nullable field rejected: %v", errs)
	}
}
