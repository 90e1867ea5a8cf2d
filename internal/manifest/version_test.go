package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSemverRange(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{in: "^1.2.3", want: "^1.x.x"},
		{in: "~1.2.3", want: "~1.2.x"},
		{in: "~1", want: "~1.x.x"},
		{in: "1.2.3", want: "1.2.3"},
		{in: ">=2.0.0", want: ">=2.0.0"},
		{in: "file:../lib", want: "file:../lib"},
		{in: "*", want: "*"},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, ToSemverRange(tc.in))
		})
	}
}

func TestSatisfies(t *testing.T) {
	ok, err := Satisfies("1.4.0", "^1.2.0")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Satisfies("2.0.0", "^1.2.0")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = Satisfies("not-a-version", "^1.0.0")
	assert.Error(t, err)
}

func TestBump(t *testing.T) {
	testCases := []struct {
		current string
		token   string
		want    string
	}{
		{current: "1.2.3", token: BumpMajor, want: "2.0.0"},
		{current: "1.2.3", token: BumpMinor, want: "1.3.0"},
		{current: "1.2.3", token: BumpPatch, want: "1.2.4"},
		{current: "1.2.3", token: BumpPremajor, want: "2.0.0-0"},
		{current: "1.2.3", token: BumpPreminor, want: "1.3.0-0"},
		{current: "1.2.3", token: BumpPrepatch, want: "1.2.4-0"},
		{current: "1.2.3", token: BumpPrerelease, want: "1.2.4-0"},
		{current: "1.2.4-0", token: BumpPrerelease, want: "1.2.4-1"},
		{current: "1.2.4-beta", token: BumpPrerelease, want: "1.2.4-beta.0"},
		{current: "1.2.4-beta.3", token: BumpPrerelease, want: "1.2.4-beta.4"},
		{current: "1.2.3", token: "4.0.0", want: "4.0.0"},
	}

	for _, tc := range testCases {
		t.Run(tc.current+" "+tc.token, func(t *testing.T) {
			got, err := Bump(tc.current, tc.token)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBump_Errors(t *testing.T) {
	_, err := Bump("1.2.3", "banana")
	assert.ErrorContains(t, err, "'banana' is not a valid version")

	_, err = Bump("garbage", BumpPatch)
	assert.Error(t, err)
}
