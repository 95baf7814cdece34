package cmd

import (
	"fmt"
	u "net/url"
	"os"
	"strings"

	"github.com/tanq16/vkdl/internal/utils"
	"gopkg.in/yaml.v3"
)

// readPageList loads a YAML list of pages:
//
//	- link: https://vk.com/video-1_2
//	  resolution: 720
//	- link: https://vk.com/video-3_4
func readPageList(path string) ([]utils.PageEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading URL list file: %v", err)
	}
	var entries []utils.PageEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("error parsing URL list file: %v", err)
	}
	return entries, nil
}

func collectPages(args []string, listFile string) ([]utils.PageEntry, error) {
	var entries []utils.PageEntry
	for _, a := range args {
		entries = append(entries, utils.PageEntry{URL: a})
	}
	if listFile != "" {
		fromFile, err := readPageList(listFile)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fromFile...)
	}
	valid := entries[:0]
	for _, e := range entries {
		e.URL = strings.TrimSpace(e.URL)
		if e.URL == "" {
			continue
		}
		parsed, err := u.Parse(e.URL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return nil, fmt.Errorf("invalid page URL: %s", e.URL)
		}
		valid = append(valid, e)
	}
	return valid, nil
}
