package rest

import (
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestOpenAPIContract(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "OpenAPI Contract Suite")
}

var _ = Describe("api/openapi.yml", func() {
	var doc *openapi3.T

	BeforeEach(func() {
		loader := openapi3.NewLoader()

		var err error
		doc, err = loader.LoadFromFile("../../../api/openapi.yml")
		Expect(err).NotTo(HaveOccurred())

		Expect(doc.Validate(loader.Context)).To(Succeed())
	})

	It("documents the core resolution and event surfaces", func() {
		for _, path := range []string{
			"/calendars/{calendarID}/permission",
			"/calendars/{calendarID}/events",
			"/calendars/{calendarID}/access",
			"/calendars/{calendarID}/links/claim",
			"/calendars/{calendarID}/invitations",
			"/events/{eventID}",
			"/events/{eventID}/translation",
			"/events/comments/{commentID}/translation",
			"/events/{eventID}/attachments",
		} {
			Expect(doc.Paths.Find(path)).NotTo(BeNil(), "missing path %s", path)
		}
	})

	It("lists every permission level in order", func() {
		perm := doc.Components.Schemas["Permission"]
		Expect(perm).NotTo(BeNil())

		var levels []string
		for _, v := range perm.Value.Enum {
			levels = append(levels, v.(string))
		}
		Expect(levels).To(Equal([]string{
			"no_access",
			"read_only_no_details",
			"read_only",
			"add_only",
			"modify_own",
			"modify",
			"administrator",
		}))
	})
})
