package identity

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFixedIdentityResultConvey(t *testing.T) {
	Convey("FixedIdentityResult", t, func() {
		idx := newFakeIdxIdentity()
		idx.parents[1] = 100
		idx.parents[2] = 100
		r := NewFixedIdentityResult(idx, 1, 10, 42, false)
		atPath := func(id int64) bool { return id == 100 }

		Convey("assigns the constant identity once per raised id", func() {
			r.AddMatches([]int64{1, 2}, atPath)
			So(idx.addedIdent[1], ShouldHaveLength, 1)
			So(idx.addedIdent[1][0], ShouldEqual, 42)
		})

		Convey("only retracts once every raw match is removed", func() {
			r.AddMatches([]int64{1, 2}, atPath)
			r.RemoveMatches([]int64{1}, atPath)
			So(idx.removed, ShouldBeEmpty)

			r.RemoveMatches([]int64{2}, atPath)
			So(idx.removed, ShouldHaveLength, 1)
			So(idx.removed[0], ShouldEqual, int64(100))
		})
	})
}
