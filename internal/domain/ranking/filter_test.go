package ranking_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/imobrank/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseDate(t *testing.T) {
	Convey("Given raw date values", t, func() {
		Convey("When the value is ISO", func() {
			d, err := ranking.ParseDate(ranking.FieldDateFrom, "2024-02-29")
			So(err, ShouldBeNil)
			So(d, ShouldNotBeNil)
			So(d.Year, ShouldEqual, 2024)
			So(d.Month, ShouldEqual, time.February)
			So(d.Day, ShouldEqual, 29)
		})

		Convey("When the value is empty", func() {
			d, err := ranking.ParseDate(ranking.FieldDateFrom, "  ")
			So(err, ShouldBeNil)
			So(d, ShouldBeNil)
		})

		for _, raw := range []string{"29/02/2024", "2024-13-01", "2023-02-29", "2024-1-5", "yesterday"} {
			Convey("When the value is "+raw, func() {
				d, err := ranking.ParseDate(ranking.FieldDateTo, raw)

				Convey("Then it is rejected, never guessed", func() {
					So(d, ShouldBeNil)
					So(errors.Is(err, ranking.ErrInvalidFilter), ShouldBeTrue)
					var fe *ranking.FilterError
					So(errors.As(err, &fe), ShouldBeTrue)
					So(fe.Field, ShouldEqual, ranking.FieldDateTo)
				})
			})
		}
	})
}

func TestParseID(t *testing.T) {
	Convey("Given raw id values", t, func() {
		id, err := ranking.ParseID(ranking.FieldProject, "42")
		So(err, ShouldBeNil)
		So(*id, ShouldEqual, 42)

		id, err = ranking.ParseID(ranking.FieldProject, "")
		So(err, ShouldBeNil)
		So(id, ShouldBeNil)

		for _, raw := range []string{"0", "-1", "abc", "1.5"} {
			_, err = ranking.ParseID(ranking.FieldProject, raw)
			So(errors.Is(err, ranking.ErrInvalidFilter), ShouldBeTrue)
		}
	})
}

func TestScope(t *testing.T) {
	Convey("Given the two scopes", t, func() {
		g := ranking.Global()
		_, ok := g.DeveloperID()
		So(ok, ShouldBeFalse)
		So(g.Kind(), ShouldEqual, ranking.ScopeGlobal)
		So(g.String(), ShouldEqual, "global")

		s := ranking.ScopedToDeveloper(5)
		id, ok := s.DeveloperID()
		So(ok, ShouldBeTrue)
		So(id, ShouldEqual, 5)
		So(s.Kind(), ShouldEqual, ranking.ScopeDeveloper)
		So(s.String(), ShouldEqual, "developer")

		var zero ranking.Scope
		So(zero.Kind(), ShouldEqual, ranking.ScopeGlobal)
	})
}
