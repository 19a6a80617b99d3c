package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"classicist-scraper/internal/types"
	"classicist-scraper/utils"
)

// Standalone selector probe: renders the directory listing and reports how
// many member rows the current selectors match, plus a sample of links.
// Useful when the site markup changes and the rulesets need adjusting.
func main() {
	config := types.DefaultConfig()
	logger := &debugLogger{}

	browserClient := utils.NewBrowserClient(config, logger)

	fmt.Printf("=== Probing %s ===\n", config.TargetURL)

	html, err := browserClient.FetchPage(context.Background(), config.TargetURL, config.ListingWaitSelector)
	if err != nil {
		log.Fatalf("Failed to fetch directory page: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		log.Fatalf("Failed to parse HTML: %v", err)
	}

	fmt.Printf("Member rows (.list-item): %d\n", doc.Find(".list-item").Length())
	fmt.Printf("Name anchors (.list-item-title-name a): %d\n", doc.Find(".list-item-title-name a").Length())
	fmt.Printf("Certified badges (.certified): %d\n", doc.Find(".certified").Length())

	fmt.Println("Sample of member links:")
	count := 0
	doc.Find(".list-item-title-name a").Each(func(i int, s *goquery.Selection) {
		if count >= 10 {
			return
		}
		href, _ := s.Attr("href")
		text := strings.TrimSpace(s.Text())
		if href != "" {
			fmt.Printf("  %d: href='%s', text='%s'\n", i+1, href, text)
			count++
		}
	})

	fmt.Println("Sample of all links:")
	count = 0
	doc.Find("a").Each(func(i int, s *goquery.Selection) {
		if count >= 10 {
			return
		}
		href, _ := s.Attr("href")
		text := strings.TrimSpace(s.Text())
		if href != "" && len(href) < 100 {
			fmt.Printf("  %d: href='%s', text='%s'\n", i+1, href, text)
			count++
		}
	})
}

type debugLogger struct{}

func (d *debugLogger) Debug(args ...interface{})                 { fmt.Println(args...) }
func (d *debugLogger) Info(args ...interface{})                  { fmt.Println(args...) }
func (d *debugLogger) Warn(args ...interface{})                  { fmt.Println(args...) }
func (d *debugLogger) Error(args ...interface{})                 { fmt.Println(args...) }
func (d *debugLogger) Debugf(format string, args ...interface{}) { fmt.Printf(format+"\n", args...) }
func (d *debugLogger) Infof(format string, args ...interface{})  { fmt.Printf(format+"\n", args...) }
func (d *debugLogger) Warnf(format string, args ...interface{})  { fmt.Printf(format+"\n", args...) }
func (d *debugLogger) Errorf(format string, args ...interface{}) { fmt.Printf(format+"\n", args...) }
