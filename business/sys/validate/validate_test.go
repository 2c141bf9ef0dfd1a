package validate_test

import (
	"testing"

	"github.com/ledgerd/powchain/business/sys/validate"
)

type newTx struct {
	Recipient string `json:"recipient" validate:"required,account"`
	Amount    uint64 `json:"amount" validate:"gt=0"`
}

func Test_Check(t *testing.T) {
	const addr = "0x02412ffaffb78f2931e193f1add952fcb84ceaa55c8491b3a71f25f89fbb482aaf"

	type table struct {
		name   string
		val    newTx
		fields []string
	}

	tt := []table{
		{name: "valid", val: newTx{Recipient: addr, Amount: 5}},
		{name: "missing recipient", val: newTx{Amount: 5}, fields: []string{"recipient"}},
		{name: "bad recipient", val: newTx{Recipient: "0x1234", Amount: 5}, fields: []string{"recipient"}},
		{name: "zero amount", val: newTx{Recipient: addr}, fields: []string{"amount"}},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			err := validate.Check(tst.val)
			if len(tst.fields) == 0 {
				if err != nil {
					t.Fatalf("Test %s:\tShould pass validation: %v", tst.name, err)
				}
				return
			}

			if !validate.IsFieldErrors(err) {
				t.Fatalf("Test %s:\tShould get back field errors, got %v", tst.name, err)
			}

			got := validate.GetFieldErrors(err).Fields()
			for _, fld := range tst.fields {
				if _, exists := got[fld]; !exists {
					t.Fatalf("Test %s:\tShould flag field %q, got %v", tst.name, fld, got)
				}
			}
		}

		t.Run(tst.name, f)
	}
}
