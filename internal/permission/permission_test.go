package permission

import (
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

func TestPermission(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Permission Lattice Suite")
}

var allLevels = []Permission{
	NoAccess, ReadOnlyNoDetails, ReadOnly, AddOnly, ModifyOwn, Modify, Administrator,
}

var _ = ginkgo.Describe("Permission lattice", func() {
	ginkgo.Describe("Level", func() {
		ginkgo.It("orders the seven levels strictly", func() {
			for i := 1; i < len(allLevels); i++ {
				gomega.Expect(Level(allLevels[i])).To(gomega.BeNumerically(">", Level(allLevels[i-1])))
			}
		})

		ginkgo.It("ranks unknown values below no_access", func() {
			gomega.Expect(Level(Permission("root"))).To(gomega.BeNumerically("<", Level(NoAccess)))
		})
	})

	ginkgo.Describe("Highest", func() {
		ginkgo.It("returns no_access for an empty set", func() {
			gomega.Expect(Highest(nil)).To(gomega.Equal(NoAccess))
			gomega.Expect(Highest([]Permission{})).To(gomega.Equal(NoAccess))
		})

		ginkgo.It("returns the greater of any pair, in either order", func() {
			for _, a := range allLevels {
				for _, b := range allLevels {
					want := a
					if Level(b) > Level(a) {
						want = b
					}
					gomega.Expect(Highest([]Permission{a, b})).To(gomega.Equal(want))
					gomega.Expect(Highest([]Permission{b, a})).To(gomega.Equal(want))
				}
			}
		})

		ginkgo.It("is associative when folding triples", func() {
			for _, a := range allLevels {
				for _, b := range allLevels {
					for _, c := range allLevels {
						left := Highest([]Permission{Highest([]Permission{a, b}), c})
						right := Highest([]Permission{a, Highest([]Permission{b, c})})
						gomega.Expect(left).To(gomega.Equal(right))
					}
				}
			}
		})
	})

	ginkgo.Describe("threshold predicates", func() {
		ginkgo.It("holds exactly from the threshold level upwards", func() {
			type tc struct {
				pred      func(Permission) bool
				threshold Permission
			}
			cases := []tc{
				{CanReadLimited, ReadOnlyNoDetails},
				{CanRead, ReadOnly},
				{CanAdd, AddOnly},
				{CanModifyOwn, ModifyOwn},
				{CanModify, Modify},
			}
			for _, c := range cases {
				for _, p := range allLevels {
					gomega.Expect(c.pred(p)).To(gomega.Equal(Level(p) >= Level(c.threshold)),
						"predicate for threshold %s at level %s", c.threshold, p)
				}
			}
		})

		ginkgo.It("is monotonic in rank", func() {
			preds := []func(Permission) bool{CanReadLimited, CanRead, CanAdd, CanModifyOwn, CanModify}
			for _, pred := range preds {
				for i, lower := range allLevels {
					if !pred(lower) {
						continue
					}
					for _, higher := range allLevels[i:] {
						gomega.Expect(pred(higher)).To(gomega.BeTrue())
					}
				}
			}
		})
	})

	ginkgo.Describe("IsAdministrator", func() {
		ginkgo.It("is satisfied only by administrator", func() {
			for _, p := range allLevels {
				gomega.Expect(IsAdministrator(p)).To(gomega.Equal(p == Administrator))
			}
		})
	})

	ginkgo.Describe("Parse", func() {
		ginkgo.It("round-trips the seven wire names", func() {
			for _, p := range allLevels {
				parsed, err := Parse(string(p))
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(parsed).To(gomega.Equal(p))
			}
		})

		ginkgo.It("rejects unknown names", func() {
			_, err := Parse("owner")
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})
})
