package remote_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/phasorlabs/phasor/pkg/extract"
	"github.com/phasorlabs/phasor/pkg/extract/remote"
)

var _ = Describe("Extractor", func() {
	It("requires a service URL", func() {
		_, err := remote.NewExtractor(remote.Config{})
		Expect(err).To(HaveOccurred())
	})

	It("reports its method as remote", func() {
		e, err := remote.NewExtractor(remote.Config{BaseURL: "http://localhost:9090"})
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Method()).To(Equal("remote"))
	})

	Describe("Extract", func() {
		It("posts item content and decodes the concept list", func() {
			var gotPath, gotName, gotContent string

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path

				var req struct {
					Name    string `json:"name"`
					Content string `json:"content"`
				}
				Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
				gotName = req.Name
				gotContent = req.Content

				_ = json.NewEncoder(w).Encode(map[string][]string{
					"concepts": {"neural networks", "gradient descent"},
				})
			}))
			defer srv.Close()

			e, err := remote.NewExtractor(remote.Config{BaseURL: srv.URL})
			Expect(err).NotTo(HaveOccurred())

			concepts, err := e.Extract(context.Background(), "notes.md", []byte("some notes"))
			Expect(err).NotTo(HaveOccurred())
			Expect(concepts).To(Equal([]string{"neural networks", "gradient descent"}))
			Expect(gotPath).To(Equal("/v1/extract"))
			Expect(gotName).To(Equal("notes.md"))
			Expect(gotContent).To(Equal("some notes"))
		})

		It("wraps non-200 responses as retryable extraction errors", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer srv.Close()

			e, err := remote.NewExtractor(remote.Config{BaseURL: srv.URL})
			Expect(err).NotTo(HaveOccurred())

			_, err = e.Extract(context.Background(), "notes.md", []byte("some notes"))
			Expect(err).To(MatchError(extract.ErrExtraction))
		})

		It("wraps transport failures as retryable extraction errors", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
			srv.Close()

			e, err := remote.NewExtractor(remote.Config{BaseURL: srv.URL})
			Expect(err).NotTo(HaveOccurred())

			_, err = e.Extract(context.Background(), "notes.md", []byte("some notes"))
			Expect(err).To(MatchError(extract.ErrExtraction))
		})

		It("wraps malformed response bodies as retryable extraction errors", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("not json"))
			}))
			defer srv.Close()

			e, err := remote.NewExtractor(remote.Config{BaseURL: srv.URL})
			Expect(err).NotTo(HaveOccurred())

			_, err = e.Extract(context.Background(), "notes.md", []byte("some notes"))
			Expect(err).To(MatchError(extract.ErrExtraction))
		})
	})
})
