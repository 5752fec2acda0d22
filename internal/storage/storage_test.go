package storage

import (
	"errors"
	"testing"

	pq "github.com/lib/pq"
)

func TestIsUndefinedTableErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"pq undefined table", &pq.Error{Code: "42P01"}, true},
		{"pq unique violation", &pq.Error{Code: "23505"}, false},
		{"wrapped pq code", errors.Join(errors.New("insert"), &pq.Error{Code: "42P01"}), true},
		{"textual match", errors.New(`relation "news" does not exist`), true},
		{"unrelated", errors.New("connection refused"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isUndefinedTableErr(tc.err); got != tc.want {
				t.Errorf("isUndefinedTableErr(%v): expected %v, got %v", tc.err, tc.want, got)
			}
		})
	}
}
