package finder

import (
	"os"
	"path/filepath"
	"runtime"
)

// esoSteamAppID is The Elder Scrolls Online's Steam application id.
const esoSteamAppID = "306130"

// DefaultRoots returns the usual ESO AddOns locations for the current user.
func DefaultRoots() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return defaultRootsForHome(home, runtime.GOOS)
}

func defaultRootsForHome(home, goos string) []string {
	docs := func(base string) []string {
		eso := filepath.Join(base, "Elder Scrolls Online")
		return []string{
			filepath.Join(eso, "live", "AddOns"),
			filepath.Join(eso, "pts", "AddOns"),
		}
	}

	switch goos {
	case "darwin":
		return docs(filepath.Join(home, "Documents"))
	case "windows":
		roots := docs(filepath.Join(home, "Documents"))
		return append(roots, docs(filepath.Join(home, "OneDrive", "Documents"))...)
	}

	// Steam Play (Proton) keeps the game's Documents inside a Wine prefix.
	var roots []string
	for _, steam := range []string{
		filepath.Join(home, ".steam", "steam"),
		filepath.Join(home, ".local", "share", "Steam"),
		filepath.Join(home, ".var", "app", "com.valvesoftware.Steam", ".local", "share", "Steam"),
	} {
		prefix := filepath.Join(steam, "steamapps", "compatdata", esoSteamAppID, "pfx",
			"drive_c", "users", "steamuser")
		roots = append(roots, docs(filepath.Join(prefix, "Documents"))...)
		roots = append(roots, docs(filepath.Join(prefix, "My Documents"))...)
	}
	return append(roots, docs(filepath.Join(home, "Documents"))...)
}
