package idempotency_test

import (
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/imobrank/internal/domain/idempotency"
	"github.com/okian/imobrank/internal/domain/model"
)

func entry(id int64) idempotency.Entry {
	return idempotency.Entry{Fingerprint: fmt.Sprintf("fp-%d", id), Event: model.ActionEvent{ID: id}}
}

func TestCache(t *testing.T) {
	Convey("Given a cache bounded to two keys", t, func() {
		c := idempotency.New(idempotency.WithMaxSize(2))

		Convey("When a key is stored twice", func() {
			first := c.Put("a", entry(1))
			second := c.Put("a", entry(2))

			Convey("Then the first outcome wins", func() {
				So(first.Event.ID, ShouldEqual, 1)
				So(second.Event.ID, ShouldEqual, 1)
				got, ok := c.Get("a")
				So(ok, ShouldBeTrue)
				So(got, ShouldResemble, entry(1))
				So(c.Len(), ShouldEqual, 1)
			})
		})

		Convey("When a third key arrives", func() {
			c.Put("a", entry(1))
			c.Put("b", entry(2))
			c.Put("c", entry(3))

			Convey("Then the oldest key is evicted", func() {
				_, ok := c.Get("a")
				So(ok, ShouldBeFalse)
				_, ok = c.Get("b")
				So(ok, ShouldBeTrue)
				_, ok = c.Get("c")
				So(ok, ShouldBeTrue)
				So(c.Len(), ShouldEqual, 2)
			})
		})

		Convey("When the oldest key is read before a third arrives", func() {
			c.Put("a", entry(1))
			c.Put("b", entry(2))
			_, _ = c.Get("a")
			c.Put("c", entry(3))

			Convey("Then reading does not keep it alive", func() {
				_, ok := c.Get("a")
				So(ok, ShouldBeFalse)
				_, ok = c.Get("b")
				So(ok, ShouldBeTrue)
			})
		})
	})

	Convey("Given a default-sized cache under concurrent writers", t, func() {
		c := idempotency.New(idempotency.WithMaxSize(0))
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				c.Put(fmt.Sprintf("k%d", i%10), entry(int64(i)))
			}(i)
		}
		wg.Wait()
		So(c.Len(), ShouldEqual, 10)
	})
}
