package universe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticSorted(t *testing.T) {
	ids, err := Static{"C", "A", "B"}.ListInstruments()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, ids)
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "universe.txt")
	content := "# KOSPI picks\nA005930\n\nA000660\n  A035720  \n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	ids, err := FromFile(path).ListInstruments()
	require.NoError(t, err)
	assert.Equal(t, []string{"A000660", "A005930", "A035720"}, ids)
}

func TestFromFileMissing(t *testing.T) {
	_, err := FromFile(filepath.Join(t.TempDir(), "nope.txt")).ListInstruments()
	assert.Error(t, err)
}

func TestIsSpecialClass(t *testing.T) {
	special := []string{
		"삼성스팩2호",
		"미래에셋대우스팩 1호",
		"삼성전자우",
		"삼성전자우B",
		"LG화학우",
		"맥쿼리인프라리츠",
		"롯데리츠",
	}
	for _, name := range special {
		assert.True(t, IsSpecialClass(name), "expected %q to be filtered", name)
	}

	ordinary := []string{
		"삼성전자",
		"현대차",
		"카카오",
		"NAVER",
		"우리금융지주", // leading 우 must not trip the preferred-share pattern
	}
	for _, name := range ordinary {
		assert.False(t, IsSpecialClass(name), "expected %q to pass", name)
	}
}

func TestExcludeSpecialClasses(t *testing.T) {
	names := map[string]string{
		"A005930": "삼성전자",
		"A005935": "삼성전자우",
		"A330590": "롯데리츠",
		"A000660": "SK하이닉스",
	}

	ids, err := ExcludeSpecialClasses(Static{"A005930", "A005935", "A330590", "A000660", "A999999"}, names).ListInstruments()
	require.NoError(t, err)

	// A999999 has no known name and passes through.
	assert.Equal(t, []string{"A000660", "A005930", "A999999"}, ids)
}
