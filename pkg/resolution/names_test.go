package resolution

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"Maria Rossi":        "MARIA ROSSI",
		"  maria   rossi ":   "MARIA ROSSI",
		"Niccolò D'Amico":    "NICCOLO D AMICO",
		"José-María Núñez":   "JOSE MARIA NUNEZ",
		"ÀÈÌÒÙ":              "AEIOU",
		"":                   "",
		"  ":                 "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeName(in), in)
	}
}

func TestNameKeys(t *testing.T) {
	assert.Equal(t, []string{"MARIA ROSSI", "ROSSI MARIA"}, nameKeys("Maria", "Rossi"))
	assert.Equal(t, []string{"MARIA"}, nameKeys("Maria", ""))
	assert.Nil(t, nameKeys(" ", ""))
}
