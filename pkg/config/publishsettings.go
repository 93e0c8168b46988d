package config

import (
	"bytes"
	"encoding/base64"
	"encoding/pem"
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/pkcs12"
)

// CertificateExtractor turns a publish settings document into a PEM bundle
// (certificate and private key) for `subscriptionID`, also reporting the
// service management URL the document advertises, if any.
//
type CertificateExtractor func(publishSettings []byte, subscriptionID string) (pemData []byte, managementURL string, err error)

type publishData struct {
	Profiles []publishProfile `xml:"PublishProfile"`
}

// publishProfile covers both schema 1.0 (certificate and url on the
// profile) and 2.0 (certificate and url per subscription).
//
type publishProfile struct {
	URL                   string                `xml:"Url,attr"`
	ManagementCertificate string                `xml:"ManagementCertificate,attr"`
	Subscriptions         []publishSubscription `xml:"Subscription"`
}

type publishSubscription struct {
	ID                    string `xml:"Id,attr"`
	Name                  string `xml:"Name,attr"`
	ServiceManagementURL  string `xml:"ServiceManagementUrl,attr"`
	ManagementCertificate string `xml:"ManagementCertificate,attr"`
}

// ExtractCertificate is the default CertificateExtractor: it decodes the
// PKCS#12 management certificate embedded in the publish settings.
//
func ExtractCertificate(publishSettings []byte, subscriptionID string) ([]byte, string, error) {
	encoded, managementURL, err := selectCertificate(publishSettings, subscriptionID)
	if err != nil {
		return nil, "", err
	}

	pfx, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(encoded), ""))
	if err != nil {
		return nil, "", fmt.Errorf("decode management certificate: %w", err)
	}

	blocks, err := pkcs12.ToPEM(pfx, "")
	if err != nil {
		return nil, "", fmt.Errorf("pkcs12 to pem: %w", err)
	}

	var buf bytes.Buffer
	for _, b := range blocks {
		if err := pem.Encode(&buf, &pem.Block{Type: b.Type, Bytes: b.Bytes}); err != nil {
			return nil, "", fmt.Errorf("pem encode %s: %w", b.Type, err)
		}
	}

	return buf.Bytes(), managementURL, nil
}

// selectCertificate picks the subscription matching `subscriptionID`, or the
// first one listed, returning its base64 encoded certificate.
//
func selectCertificate(publishSettings []byte, subscriptionID string) (string, string, error) {
	data := &publishData{}
	if err := xml.Unmarshal(publishSettings, data); err != nil {
		return "", "", fmt.Errorf("unmarshal publish settings: %w", err)
	}

	var (
		profile *publishProfile
		sub     *publishSubscription
	)

	for pi := range data.Profiles {
		p := &data.Profiles[pi]

		for si := range p.Subscriptions {
			s := &p.Subscriptions[si]

			if sub == nil || (s.ID == subscriptionID && sub.ID != subscriptionID) {
				profile, sub = p, s
			}
		}
	}

	if sub == nil {
		return "", "", fmt.Errorf("no subscription found in publish settings")
	}

	cert := sub.ManagementCertificate
	if cert == "" {
		cert = profile.ManagementCertificate
	}

	if cert == "" {
		return "", "", fmt.Errorf("subscription '%s' has no management certificate", sub.ID)
	}

	managementURL := sub.ServiceManagementURL
	if managementURL == "" {
		managementURL = profile.URL
	}

	return cert, managementURL, nil
}

// readPublishSettings accepts either the document itself or a path to it.
//
func readPublishSettings(v string) ([]byte, error) {
	trimmed := strings.TrimSpace(v)
	if strings.HasPrefix(trimmed, "<") {
		return []byte(trimmed), nil
	}

	content, err := os.ReadFile(trimmed)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return content, nil
}
