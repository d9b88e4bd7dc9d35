package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/EhsanMalik360/productsmappingapp-sub002/services"
)

func TestNormalizeIdentifier_StripsSeparators(t *testing.T) {
	assert.Equal(t, "abc001", services.NormalizeIdentifier("ABC-001"))
	assert.Equal(t, "abc001", services.NormalizeIdentifier(" abc 001 "))
	assert.Equal(t, "xy12z", services.NormalizeIdentifier("XY_12/Z"))
}

func TestNormalizeIdentifier_Idempotent(t *testing.T) {
	inputs := []string{"ABC-001", "5060214370", "Part #42/B", "", "---"}
	for _, in := range inputs {
		once := services.NormalizeIdentifier(in)
		assert.Equal(t, once, services.NormalizeIdentifier(once))
	}
}

func TestRepairScientificNotation_DecimalForm(t *testing.T) {
	assert.Equal(t, "840000000000", services.RepairScientificNotation("8.40E+11"))
	assert.Equal(t, "840000000000", services.RepairScientificNotation("8.4e+11"))
	assert.Equal(t, "123.45", services.RepairScientificNotation("1.2345E+2"))
	assert.Equal(t, "84", services.RepairScientificNotation("8.40E+1"))
}

func TestRepairScientificNotation_IntegerForm(t *testing.T) {
	assert.Equal(t, "5000000000", services.RepairScientificNotation("5E9"))
	assert.Equal(t, "5000000000", services.RepairScientificNotation("5e+9"))
}

func TestRepairScientificNotation_HugeExponent(t *testing.T) {
	// Exponents beyond float range still reconstruct digit for digit.
	got := services.RepairScientificNotation("1.5E+120")
	assert.Len(t, got, 121)
	assert.Equal(t, "15", got[:2])
	assert.NotContains(t, got, ".")
}

func TestRepairScientificNotation_NegativeExponentUntouched(t *testing.T) {
	assert.Equal(t, "8.40E-11", services.RepairScientificNotation("8.40E-11"))
	assert.Equal(t, "5e-9", services.RepairScientificNotation("5e-9"))
}

func TestRepairScientificNotation_Sentinels(t *testing.T) {
	for _, in := range []string{"", "  ", "NaN", "nan", "None", "null", "undefined"} {
		assert.Equal(t, "", services.RepairScientificNotation(in))
	}
}

func TestRepairScientificNotation_PassThrough(t *testing.T) {
	assert.Equal(t, "5060214370", services.RepairScientificNotation(" 5060214370 "))
	assert.Equal(t, "ABC-001", services.RepairScientificNotation("ABC-001"))
	// Long digit strings must never round-trip through a float.
	assert.Equal(t, "123456789012345678", services.RepairScientificNotation("123456789012345678"))
}

func TestRepairScientificNotation_FloatTail(t *testing.T) {
	assert.Equal(t, "840000000000", services.RepairScientificNotation("840000000000.0"))
	assert.Equal(t, "8.5", services.RepairScientificNotation("8.5"))
}

func TestParseMonetary(t *testing.T) {
	v, foreign := services.ParseMonetary("$5.99")
	assert.Equal(t, 5.99, v)
	assert.False(t, foreign)

	v, foreign = services.ParseMonetary("£12.50")
	assert.Equal(t, 12.50, v)
	assert.True(t, foreign)

	v, foreign = services.ParseMonetary("€1.234,00")
	assert.True(t, foreign)
	assert.NotZero(t, v)

	v, foreign = services.ParseMonetary("1,234.56")
	assert.Equal(t, 1234.56, v)
	assert.False(t, foreign)

	v, foreign = services.ParseMonetary("n/a")
	assert.Zero(t, v)
	assert.False(t, foreign)

	v, _ = services.ParseMonetary("")
	assert.Zero(t, v)
}
