package remote

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"regexp"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/zombor/billed/internal/bill"
	"github.com/zombor/billed/internal/billstore"
)

var pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

// navigation records the routes requested by the views
type navigation struct {
	routes []bill.Route
}

func (n *navigation) Navigate(route bill.Route) { n.routes = append(n.routes, route) }

var _ = Describe("Integration", func() {
	var (
		db       *billstore.BoltDB
		ghServer *ghttp.Server
		client   *Client
		nav      *navigation
		reported []error
		reporter bill.ErrorReporter
		identity bill.Identity
		ctx      context.Context
	)

	BeforeEach(func() {
		tmpDir := GinkgoT().TempDir()

		var err error
		db, err = billstore.NewBoltDB(filepath.Join(tmpDir, "test.db"))
		Expect(err).NotTo(HaveOccurred())

		store, err := billstore.NewLocalStorage(filepath.Join(tmpDir, "bills"))
		Expect(err).NotTo(HaveOccurred())

		server := billstore.NewServer(billstore.NewService(db, store), billstore.BasicAuth{Password: "secret"})
		ghServer = ghttp.NewServer()
		anyPath := regexp.MustCompile(".*")
		ghServer.RouteToHandler("GET", anyPath, server.ServeHTTP)
		ghServer.RouteToHandler("POST", anyPath, server.ServeHTTP)

		identity = bill.Identity{Email: "employee@test.tld"}
		client, err = NewClient(ghServer.URL(), identity, WithPassword("secret"))
		Expect(err).NotTo(HaveOccurred())

		nav = &navigation{}
		reported = nil
		reporter = bill.ErrorReporterFunc(func(err error) { reported = append(reported, err) })
		ctx = context.Background()
	})

	AfterEach(func() {
		ghServer.Close()
		db.Close()
	})

	submit := func(att bill.Attachment, draft bill.Draft) (*bill.Submission, error) {
		submission := bill.NewSubmission(client, identity, nav, reporter)
		if err := submission.OnAttachmentSelected(att); err != nil {
			return submission, err
		}
		return submission, submission.OnSubmit(ctx, draft)
	}

	amount, pct := 150, 20
	draft := bill.Draft{
		Type:       bill.TypeRestaurants,
		Name:       "Vol Paris Londres",
		Date:       "2020-05-24",
		Amount:     &amount,
		VAT:        "30",
		Pct:        &pct,
		Commentary: "Pas de commentaires",
	}

	When("an employee submits a complete form", func() {
		var err error

		BeforeEach(func() {
			_, err = submit(bill.Attachment{Name: "image.png", ContentType: "image/png", Data: pngData}, draft)
		})

		It("navigates to the bill list", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(nav.routes).To(Equal([]bill.Route{bill.RouteBills}))
			Expect(reported).To(BeEmpty())
		})

		It("persists one pending bill", func() {
			bills, listErr := db.ListBills()
			Expect(listErr).NotTo(HaveOccurred())
			Expect(bills).To(HaveLen(1))
			Expect(bills[0].FileName).To(Equal("image.png"))
			Expect(bills[0].Email).To(Equal("employee@test.tld"))
			Expect(bills[0].Status).To(Equal(bill.StatusPending))
		})

		It("lists the bill with a working receipt preview", func() {
			list := bill.NewList(client, identity, nav, reporter)
			page, fetchErr := list.OnFetch(ctx)
			Expect(fetchErr).NotTo(HaveOccurred())
			Expect(page.Rows).To(HaveLen(1))
			Expect(page.Rows[0].DisplayDate).To(Equal("24 Mai. 20"))
			Expect(page.Rows[0].StatusLabel).To(Equal("En attente"))

			preview := list.OnPreviewRequested(page.Rows[0].Bill.FileURL)
			req, reqErr := http.NewRequest("GET", preview.FileURL, nil)
			Expect(reqErr).NotTo(HaveOccurred())
			req.SetBasicAuth(identity.Email, "secret")
			resp, getErr := http.DefaultClient.Do(req)
			Expect(getErr).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("image/png"))
			data, readErr := io.ReadAll(resp.Body)
			Expect(readErr).NotTo(HaveOccurred())
			Expect(data).To(Equal(pngData))
		})

		It("hides the bill from other employees", func() {
			other, clientErr := NewClient(ghServer.URL(), bill.Identity{Email: "other@test.tld"}, WithPassword("secret"))
			Expect(clientErr).NotTo(HaveOccurred())
			page, fetchErr := bill.NewList(other, bill.Identity{Email: "other@test.tld"}, nav, reporter).OnFetch(ctx)
			Expect(fetchErr).NotTo(HaveOccurred())
			Expect(page.Rows).To(BeEmpty())
		})
	})

	When("the receipt is a png in name only", func() {
		It("reports the rejection and stays on the form", func() {
			submission, err := submit(bill.Attachment{Name: "image.png", ContentType: "image/png", Data: []byte("not an image")}, draft)
			Expect(err).To(HaveOccurred())
			Expect(reported).To(HaveLen(1))
			Expect(nav.routes).To(BeEmpty())
			Expect(submission.Snapshot().State).To(Equal(bill.StateFailed))
			Expect(submission.Snapshot().Error.Message).To(ContainSubstring("not a jpg or png"))
		})
	})

	When("the receipt is json", func() {
		It("never reaches the server", func() {
			_, err := submit(bill.Attachment{Name: "image.json", ContentType: "application/json", Data: []byte("{}")}, draft)
			Expect(bill.IsValidation(err)).To(BeTrue())
			Expect(ghServer.ReceivedRequests()).To(BeEmpty())
		})
	})

	When("the password is wrong", func() {
		It("surfaces the server message in the list error region", func() {
			wrong, err := NewClient(ghServer.URL(), identity, WithPassword("nope"))
			Expect(err).NotTo(HaveOccurred())
			page, fetchErr := bill.NewList(wrong, identity, nav, reporter).OnFetch(ctx)
			Expect(fetchErr).To(HaveOccurred())
			Expect(page.Error).NotTo(BeNil())
			Expect(page.Error.Message).To(Equal("Unauthorized"))
			Expect(reported).To(HaveLen(1))
		})
	})
})
