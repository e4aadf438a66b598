package forwarder_test

import (
	"errors"

	"github.com/icecave/forwardcore/src/forwarder"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("ErrorKind", func() {
	DescribeTable(
		"String",
		func(kind forwarder.ErrorKind, expected string) {
			Expect(kind.String()).To(Equal(expected))
		},
		Entry("none", forwarder.ErrorKindNone, "None"),
		Entry("request", forwarder.ErrorKindRequest, "Request"),
		Entry("request body client", forwarder.ErrorKindRequestBodyClient, "RequestBodyClient"),
		Entry("upgrade response destination", forwarder.ErrorKindUpgradeResponseDestination, "UpgradeResponseDestination"),
	)
})

var _ = Describe("Error", func() {
	It("wraps the underlying error", func() {
		underlying := errors.New("boom")
		err := forwarder.NewError(forwarder.ErrorKindRequestBodyDestination, underlying)

		Expect(err.Kind).To(Equal(forwarder.ErrorKindRequestBodyDestination))
		Expect(errors.Unwrap(err)).To(Equal(underlying))
		Expect(err.Error()).To(ContainSubstring("boom"))
	})

	It("renders just the kind when there is no underlying error", func() {
		err := forwarder.NewError(forwarder.ErrorKindRequestCanceled, nil)
		Expect(err.Error()).To(Equal("RequestCanceled"))
	})
})
