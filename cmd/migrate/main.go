// Command migrate backfills the snapshot database from an existing on-disk
// snapshot tree. Useful after restoring a storage volume whose database was
// lost: the directory layout itself carries enough information to rebuild
// every record (at millisecond precision, the most the filenames retain).
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"snapserver/internal/model"
	"snapserver/internal/repository/sqlite"
	"snapserver/internal/snapshot"
)

func main() {
	root := flag.String("root", "data/cameras", "Snapshot storage root")
	dbPath := flag.String("db", "data/snapshots.db", "Database path")
	flag.Parse()

	fmt.Printf("Rebuilding %s from snapshot tree %s\n", *dbPath, *root)

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	snapshotRepo := sqlite.NewSnapshotRepository(db)
	cameraRepo := sqlite.NewCameraRepository(db)

	inserted := 0
	skipped := 0
	cameras := make(map[string]bool)

	err = filepath.WalkDir(*root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".jpg" {
			return nil
		}

		rel, err := filepath.Rel(*root, path)
		if err != nil {
			return err
		}

		snap, err := recordFromPath(rel, path)
		if err != nil {
			log.Printf("Skipping %s: %v", rel, err)
			skipped++
			return nil
		}

		if _, err := snapshotRepo.Insert(snap); err != nil {
			log.Printf("Skipping %s: %v", rel, err)
			skipped++
			return nil
		}

		cameras[snap.Camera] = true
		inserted++
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to walk snapshot tree: %v", err)
	}

	for name := range cameras {
		if _, err := cameraRepo.Upsert(&model.Camera{Name: name, Enabled: true}); err != nil {
			log.Printf("Failed to register camera %s: %v", name, err)
		}
	}

	fmt.Printf("Inserted %d snapshot record(s) across %d camera(s)\n", inserted, len(cameras))
	if skipped > 0 {
		fmt.Printf("Skipped %d file(s) (unexpected layout or errors)\n", skipped)
	}
}

// recordFromPath rebuilds a snapshot record from a tree-relative path of the
// form <camera>/snapshots/recordings/YYYY/MM/DD/HH/MM_SS_mmm.jpg.
func recordFromPath(rel, fullPath string) (*model.Snapshot, error) {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 8 || parts[1] != "snapshots" || parts[2] != "recordings" {
		return nil, fmt.Errorf("unexpected path layout")
	}

	camera := parts[0]
	year, err1 := strconv.Atoi(parts[3])
	month, err2 := strconv.Atoi(parts[4])
	day, err3 := strconv.Atoi(parts[5])
	hour, err4 := strconv.Atoi(parts[6])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return nil, fmt.Errorf("non-numeric date components")
	}

	name := parts[7]
	base := strings.TrimSuffix(name, ".jpg")
	fields := strings.Split(base, "_")
	if len(fields) != 3 || len(fields[0]) != 2 || len(fields[1]) != 2 || len(fields[2]) != 3 {
		return nil, fmt.Errorf("unexpected filename %s", name)
	}

	minute, err1 := strconv.Atoi(fields[0])
	second, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		return nil, fmt.Errorf("non-numeric time components in %s", name)
	}

	// Filenames keep at most millisecond precision; a "000" field is
	// indistinguishable from a whole-second capture, so it maps back to one.
	fraction := fields[2]
	if fraction == "000" {
		fraction = ""
	}

	cal := snapshot.Calendar{
		Year:     year,
		Month:    month,
		Day:      day,
		Hour:     hour,
		Minute:   minute,
		Second:   second,
		Fraction: fraction,
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, err
	}

	return &model.Snapshot{
		Camera:     camera,
		Filename:   name,
		FilePath:   fullPath,
		FileSize:   info.Size(),
		CapturedAt: cal.Format(),
	}, nil
}
