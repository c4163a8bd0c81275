package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	caf "github.com/DUNE/duneanaobj_go/pkg"
)

var logger caf.SlogLogger

func init() {
	logger = caf.NewSlogLogger(os.Stdout, os.Stderr)
}

func main() {
	fileIn := flag.String("file", "", "CAF file to dump")
	entry := flag.Int("entry", -1, "Only dump this entry, -1 for all")
	particle := flag.String("particle", "", "Look up a true particle by id, as ixn:type:part")
	repair := flag.Bool("repair", false, "Repair inconsistent counts instead of failing")
	verbosity := flag.Int("verbosity", 0, "Verbosity level")
	flag.Parse()

	config := caf.DefaultConfiguration()
	config.FileIn = *fileIn
	config.RepairCounts = *repair
	config.Verbosity = *verbosity
	caf.SetConfiguration(config)
	caf.SetLogger(logger)

	if err := dump(os.Stdout, *fileIn, *entry, *particle); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func dump(out io.Writer, filename string, entry int, particle string) error {
	var id caf.ParticleID
	if particle != "" {
		var err error
		id, err = caf.ParseParticleID(particle)
		if err != nil {
			return err
		}
	}

	if entry < -1 {
		return fmt.Errorf("invalid entry %d, use -1 for all entries", entry)
	}

	reader, err := caf.OpenReader(filename)
	if err != nil {
		return err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			logger.Error(err.Error())
		}
	}()

	records, err := reader.ReadAll()
	if err != nil {
		return err
	}
	if entry >= len(records) {
		return fmt.Errorf("entry %d requested but file has %d entries", entry, len(records))
	}

	for i, rec := range records {
		if entry >= 0 && i != entry {
			continue
		}
		printRecord(out, i, rec)
		if particle != "" {
			printParticle(out, rec, id)
		}
	}
	return nil
}

func printRecord(out io.Writer, entry int, rec *caf.StandardRecord) {
	fmt.Fprintf(out, "Entry %d: detectors %s\n", entry, rec.ActiveDetectors)
	for _, d := range rec.ActiveDetectors.Detectors() {
		m := rec.Meta.At(d)
		fmt.Fprintf(out, "  %-8s run %d subrun %d event %d pot %g\n", d, m.Run, m.Subrun, m.Event, m.Pot)
	}
	fmt.Fprintf(out, "  mc: %d interactions, %d particles\n", rec.MC.NNu, rec.MC.NParticles())
	for i, ixn := range rec.MC.Nu {
		fmt.Fprintf(out, "    nu[%d] id %d pdg %d E %g cc %t (%d prim, %d prefsi, %d sec)\n",
			i, ixn.ID, ixn.PDG, ixn.E, ixn.IsCC, ixn.NPrim, ixn.NPrefSI, ixn.NSec)
	}
	fmt.Fprintf(out, "  reco: %d dlp, %d pandora, %d nd-lar tracks\n",
		rec.Common.Ixn.NDLP, rec.Common.Ixn.NPandora, rec.ND.LAr.NDLP)
	fmt.Fprintf(out, "  weights: %d CrazyFlux, %d xsec systematics, cv %g\n",
		rec.NwgtCrazyFlux, len(rec.XsSystWgt), rec.TotalXsSystCVWgt)
}

func printParticle(out io.Writer, rec *caf.StandardRecord, id caf.ParticleID) {
	p, err := rec.MC.Particle(id)
	if err != nil {
		fmt.Fprintf(out, "  %v\n", err)
		return
	}
	fmt.Fprintf(out, "  particle %s: pdg %d G4ID %d parent %d E %g start (%g, %g, %g)\n",
		p.ID, p.PDG, p.G4ID, p.Parent, p.P.E, p.Start.X, p.Start.Y, p.Start.Z)
}
