// Package selfupdate checks GitHub releases for a newer motiond
// binary and replaces the running process with it, adapted from
// pkg/cli/update.go's CheckForUpdates/detectLatestFallback.
package selfupdate

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"regexp"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/blang/semver"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
)

// Version is the running build's semver string, set at link time via
// -ldflags "-X github.com/motdec/motiond/internal/selfupdate.Version=...".
var Version = "0.0.0"

// Repo is the GitHub "owner/name" releases are checked against.
const Repo = "motdec/motiond"

var semverRe = regexp.MustCompile(`v?\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?`)

// detectLatest queries the GitHub Releases API and returns the
// highest semver-tagged, non-draft, non-prerelease release it can
// find, tolerant of tag names that aren't pure semver.
func detectLatest(repo string) (*selfupdate.Release, bool, error) {
	apiURL := fmt.Sprintf("https://api.github.com/repos/%s/releases", repo)
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(apiURL)
	if err != nil {
		return nil, false, fmt.Errorf("github API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, false, fmt.Errorf("github API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed reading github response: %w", err)
	}

	var releases []struct {
		TagName    string `json:"tag_name"`
		Name       string `json:"name"`
		Draft      bool   `json:"draft"`
		Prerelease bool   `json:"prerelease"`
		Assets     []struct {
			Name               string `json:"name"`
			BrowserDownloadURL string `json:"browser_download_url"`
		} `json:"assets"`
	}
	if err := json.Unmarshal(body, &releases); err != nil {
		return nil, false, fmt.Errorf("failed to decode github releases: %w", err)
	}

	type candidate struct {
		ver      semver.Version
		assetURL string
	}
	var candidates []candidate

	for _, r := range releases {
		if r.Draft || r.Prerelease {
			continue
		}
		match := semverRe.FindString(r.TagName)
		if match == "" {
			match = semverRe.FindString(r.Name)
			if match == "" {
				continue
			}
		}
		v, perr := semver.Parse(match)
		if perr != nil {
			v, perr = semver.Parse(strings.TrimPrefix(match, "v"))
			if perr != nil {
				continue
			}
		}
		assetURL := ""
		for _, a := range r.Assets {
			nameLower := strings.ToLower(a.Name)
			if strings.Contains(nameLower, "linux") || strings.Contains(nameLower, "darwin") ||
				strings.Contains(nameLower, "windows") || strings.Contains(nameLower, "amd64") ||
				strings.Contains(nameLower, "arm64") {
				assetURL = a.BrowserDownloadURL
				break
			}
			if assetURL == "" {
				assetURL = a.BrowserDownloadURL
			}
		}
		candidates = append(candidates, candidate{ver: v, assetURL: assetURL})
	}

	if len(candidates) == 0 {
		return nil, false, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ver.GT(candidates[j].ver)
	})
	best := candidates[0]
	return &selfupdate.Release{Version: best.ver, AssetURL: best.assetURL}, true, nil
}

// promptFunc lets Check's confirmation step be answered without a
// live terminal.
type promptFunc func(prompt string) (string, error)

// Check looks for a newer release than Version, prompts for
// confirmation through prompt, and if confirmed downloads and exec's
// into the new binary. It returns nil whenever there is nothing to do
// (already current, no releases, no asset, or the user declines).
func Check(prompt promptFunc) error {
	latest, found, err := detectLatest(Repo)
	fmt.Printf("Current version: %s\n", Version)
	if err != nil {
		return fmt.Errorf("update check failed: %w", err)
	}
	if !found || latest == nil {
		fmt.Printf("No releases found for %s.\n", Repo)
		return nil
	}
	fmt.Printf("Latest version: %s\n", latest.Version)

	currentVer, parseErr := semver.Parse(Version)
	if parseErr != nil {
		fmt.Printf("warning: could not parse current version %q: %v\n", Version, parseErr)
	}
	if latest.Version.LTE(currentVer) {
		fmt.Printf("You are already running the latest version: %s.\n", currentVer)
		return nil
	}
	if latest.AssetURL == "" {
		fmt.Printf("A new version (%s) is available but there is no downloadable asset.\n", latest.Version)
		fmt.Println("Please visit the project releases page to download the new version.")
		return nil
	}

	answer, perr := prompt(fmt.Sprintf("A new version (%s) is available. Update now? (y/N): ", latest.Version))
	if perr != nil {
		return fmt.Errorf("failed reading input: %w", perr)
	}
	answer = strings.TrimSpace(strings.ToLower(answer))
	if answer != "y" && answer != "yes" {
		fmt.Println("Update cancelled.")
		return nil
	}

	fmt.Println("Updating...")
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("could not locate executable: %w", err)
	}
	if err := selfupdate.UpdateTo(latest.AssetURL, exe); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	argv := append([]string{exe}, os.Args[1:]...)
	if err := syscall.Exec(exe, argv, os.Environ()); err != nil {
		cmd := exec.Command(exe, os.Args[1:]...)
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if startErr := cmd.Start(); startErr != nil {
			fmt.Printf("Updated to version %s, but failed to restart automatically: %v; fallback start error: %v\n", latest.Version, err, startErr)
			fmt.Println("Please restart the application manually.")
			return nil
		}
		os.Exit(0)
	}
	return nil
}
