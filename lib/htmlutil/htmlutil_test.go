package htmlutil

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	testCases := []struct {
		text     string
		expected string
	}{
		{text: "  Auchan\n\tFrance ", expected: "Auchan France"},
		{text: "1 779,00 €", expected: "1 779,00 €"},
		{text: "​40484892", expected: "40484892"},
		{text: "", expected: ""},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, CleanText(test.text))
	}
}

func TestGetAnchors(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<ul>
			<li><a href="gui.php?page=commandes">  Commandes </a></li>
			<li><a href="/gui.php?page=factures">Factures<br>en cours</a></li>
			<li><a>no link</a></li>
		</ul>
	`))
	require.NoError(t, err)

	base, err := url.Parse("https://portal.example/gui.php?page=accueil")
	require.NoError(t, err)

	anchors := GetAnchors(context.Background(), base, doc.Find("a"))
	require.Equal(t, []Anchor{
		{Name: "Commandes", Href: "https://portal.example/gui.php?page=commandes"},
		{Name: "Factures en cours", Href: "https://portal.example/gui.php?page=factures"},
	}, anchors)
}
