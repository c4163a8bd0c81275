package caf

import (
	"errors"
	"fmt"
	"slices"

	hdf5 "github.com/jmbenlloch/go-hdf5"
	"golang.org/x/exp/maps"
)

type Writer struct {
	File     *hdf5.File
	Filename string
	Group    *hdf5.Group
	NEntries int
	tables   map[string]*table
	// First failed append. Earlier tables may already hold rows of that
	// entry, so nothing more is written after it.
	err error
}

func NewWriter(filename string) (*Writer, error) {
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Creating file: %s", filename), "writer")
	}
	file, err := createFile(filename)
	if err != nil {
		return nil, err
	}
	writer := &Writer{
		File:     file,
		Filename: filename,
		tables:   make(map[string]*table),
	}
	writer.Group, err = createGroup(file, groupName)
	if err != nil {
		file.Close()
		return nil, err
	}

	layout := []struct {
		name     string
		datatype interface{}
	}{
		{schemaTableName, SchemaHDF5{}},
		{recordsTableName, RecordHDF5{}},
		{metaTableName, MetaHDF5{}},
		{nuTableName, TrueInteractionHDF5{}},
		{particlesTableName, TrueParticleHDF5{}},
		{crazyFluxTableName, WeightHDF5{}},
		{cvwgtTableName, WeightHDF5{}},
		{xsSystSizeTableName, XsSystSizeHDF5{}},
		{xsSystTableName, XsSystWeightHDF5{}},
		{recoIxnTableName, RecoInteractionHDF5{}},
		{recoTruthTableName, RecoTruthHDF5{}},
		{ndLArTableName, NDLArTrackHDF5{}},
	}
	for _, l := range layout {
		t, err := createTable(writer.Group, l.name, l.datatype)
		if err != nil {
			return nil, errors.Join(err, writer.Close())
		}
		writer.tables[l.name] = t
	}

	schema := []SchemaHDF5{{n_detectors: int32(NDetectors), version: SchemaVersion}}
	if err := appendRows(writer.tables[schemaTableName], schema); err != nil {
		return nil, errors.Join(err, writer.Close())
	}
	return writer, nil
}

// WriteRecord appends rec as the next entry. Records whose counts disagree
// with their vectors are refused, or repaired in place when the
// configuration asks for it. Once appending rows fails the writer is broken:
// every later call returns ErrWriterBroken and the file should be discarded.
func (w *Writer) WriteRecord(rec *StandardRecord) error {
	if w.err != nil {
		return fmt.Errorf("%w: %w", ErrWriterBroken, w.err)
	}
	if err := rec.Validate(); err != nil {
		if !configuration.RepairCounts {
			return fmt.Errorf("entry %d not written: %w", w.NEntries, err)
		}
		logger.Error(fmt.Sprintf("repairing counts of entry %d of %s: %v", w.NEntries, w.Filename, err))
		rec.RepairCounts()
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("entry %d not written: %w", w.NEntries, err)
		}
	}

	if err := w.writeEntry(int64(w.NEntries), rec); err != nil {
		w.err = fmt.Errorf("entry %d: %w", w.NEntries, err)
		return w.err
	}
	w.NEntries++
	return nil
}

func (w *Writer) writeEntry(entry int64, rec *StandardRecord) error {
	if err := w.writeRecordRow(entry, rec); err != nil {
		return err
	}
	if err := w.writeMeta(entry, &rec.Meta); err != nil {
		return err
	}
	if err := w.writeTruth(entry, &rec.MC); err != nil {
		return err
	}
	if err := w.writeWeights(entry, rec); err != nil {
		return err
	}
	if err := w.writeReco(entry, &rec.Common.Ixn); err != nil {
		return err
	}
	return w.writeND(entry, &rec.ND)
}

func (w *Writer) writeRecordRow(entry int64, rec *StandardRecord) error {
	d := rec.Deprecated
	row := RecordHDF5{
		entry:               entry,
		active_detectors:    rec.ActiveDetectors.Bits(),
		nnu:                 rec.MC.NNu,
		ndlp:                rec.Common.Ixn.NDLP,
		npandora:            rec.Common.Ixn.NPandora,
		nd_lar_ndlp:         rec.ND.LAr.NDLP,
		nwgt_CrazyFlux:      rec.NwgtCrazyFlux,
		n_xsSyst:            int32(len(rec.XsSystWgt)),
		total_xsSyst_cv_wgt: rec.TotalXsSystCVWgt,
		perPOTWeight:        d.PerPOTWeight,
		NDMassCorrWeight:    d.NDMassCorrWeight,
		SpecialRunWeight:    d.SpecialRunWeight,
		SpecialHCRunId:      d.SpecialHCRunID,
		OffAxisFluxBin:      d.OffAxisFluxBin,
		OffAxisFluxConfig:   d.OffAxisFluxConfig,
		abspos_x:            d.AbsPosX,
		EVisReco_ND:         d.EVisRecoND,
		EVisReco_numu:       d.EVisRecoNumu,
		EVisReco_nue:        d.EVisRecoNue,
		HadEVisReco_ND:      d.HadEVisRecoND,
		HadEVisReco_FD:      d.HadEVisRecoFD,
		VisTrue_NDFD:        d.VisTrueNDFD,
		ProxyRecoLepE:       d.ProxyRecoLepE,
		eRecProxy:           d.ERecProxy,
		HadE:                d.HadE,
		ePipm:               d.EPipm,
		eTotalPi0:           d.ETotalPi0,
	}
	return appendRows(w.tables[recordsTableName], []RecordHDF5{row})
}

func (w *Writer) writeMeta(entry int64, meta *MetaArray) error {
	// One row per detector, active or not, so rows stay aligned with Detector
	rows := make([]MetaHDF5, NDetectors)
	for i, m := range meta {
		rows[i] = MetaHDF5{
			entry:         entry,
			detector:      int32(i),
			enabled:       boolToInt8(m.Enabled),
			run:           m.Run,
			subrun:        m.Subrun,
			event:         m.Event,
			subevt:        m.Subevt,
			start_time:    m.StartTime,
			end_time:      m.EndTime,
			pot:           m.Pot,
			lifetime_corr: m.LifetimeCorr,
		}
	}
	return appendRows(w.tables[metaTableName], rows)
}

func (w *Writer) writeTruth(entry int64, mc *TruthBranch) error {
	ixnRows := make([]TrueInteractionHDF5, len(mc.Nu))
	particleRows := make([]TrueParticleHDF5, 0, mc.NParticles())
	for i := range mc.Nu {
		ixn := &mc.Nu[i]
		ixnRows[i] = TrueInteractionHDF5{
			entry:      entry,
			index:      int32(i),
			id:         ixn.ID,
			pdg:        ixn.PDG,
			target_pdg: ixn.TargetPDG,
			mode:       ixn.Mode,
			iscc:       boolToInt8(ixn.IsCC),
			E:          ixn.E,
			vtx_x:      ixn.Vtx.X,
			vtx_y:      ixn.Vtx.Y,
			vtx_z:      ixn.Vtx.Z,
			xsec_cvwgt: ixn.XsecCVWgt,
			nprim:      ixn.NPrim,
			nprefsi:    ixn.NPrefSI,
			nsec:       ixn.NSec,
		}
		for _, list := range []ParticleType{ParticlePrimary, ParticlePrimaryBeforeFSI, ParticleSecondary} {
			for j, p := range *ixn.particles(list) {
				particleRows = append(particleRows, particleRow(entry, int32(i), list, int32(j), &p))
			}
		}
	}
	if err := appendRows(w.tables[nuTableName], ixnRows); err != nil {
		return err
	}
	return appendRows(w.tables[particlesTableName], particleRows)
}

func particleRow(entry int64, ixnIndex int32, list ParticleType, slot int32, p *TrueParticle) TrueParticleHDF5 {
	return TrueParticleHDF5{
		entry:          entry,
		ixn_index:      ixnIndex,
		list:           int32(list),
		slot:           slot,
		id_ixn:         p.ID.Ixn,
		id_type:        int32(p.ID.Type),
		id_part:        p.ID.Part,
		pdg:            p.PDG,
		G4ID:           p.G4ID,
		interaction_id: p.InteractionID,
		time_start:     p.TimeStart,
		parent:         p.Parent,
		p_px:           p.P.Px,
		p_py:           p.P.Py,
		p_pz:           p.P.Pz,
		p_E:            p.P.E,
		start_x:        p.Start.X,
		start_y:        p.Start.Y,
		start_z:        p.Start.Z,
		end_x:          p.End.X,
		end_y:          p.End.Y,
		end_z:          p.End.Z,
		start_process:  p.StartProcess,
		end_process:    p.EndProcess,
	}
}

func weightRows(entry int64, weights []float32) []WeightHDF5 {
	rows := make([]WeightHDF5, len(weights))
	for i, value := range weights {
		rows[i] = WeightHDF5{entry: entry, index: int32(i), value: value}
	}
	return rows
}

func (w *Writer) writeWeights(entry int64, rec *StandardRecord) error {
	if err := appendRows(w.tables[crazyFluxTableName], weightRows(entry, rec.WgtCrazyFlux)); err != nil {
		return err
	}
	if err := appendRows(w.tables[cvwgtTableName], weightRows(entry, rec.CVWgt)); err != nil {
		return err
	}

	// Sizes are kept apart so systematics without universes survive
	sizes := make([]XsSystSizeHDF5, len(rec.XsSystWgt))
	var values []XsSystWeightHDF5
	for syst, universes := range rec.XsSystWgt {
		sizes[syst] = XsSystSizeHDF5{entry: entry, syst: int32(syst), nuniv: int32(len(universes))}
		for univ, value := range universes {
			values = append(values, XsSystWeightHDF5{entry: entry, syst: int32(syst), univ: int32(univ), value: value})
		}
	}
	if err := appendRows(w.tables[xsSystSizeTableName], sizes); err != nil {
		return err
	}
	return appendRows(w.tables[xsSystTableName], values)
}

func (w *Writer) writeReco(entry int64, b *RecoInteractionBranch) error {
	var ixnRows []RecoInteractionHDF5
	var truthRows []RecoTruthHDF5
	for _, algo := range []RecoAlgorithm{AlgoDLP, AlgoPandora} {
		for slot, ixn := range b.Interactions(algo) {
			ixnRows = append(ixnRows, RecoInteractionHDF5{
				entry:        entry,
				algo:         int32(algo),
				slot:         int32(slot),
				id:           ixn.ID,
				vtx_x:        ixn.Vtx.X,
				vtx_y:        ixn.Vtx.Y,
				vtx_z:        ixn.Vtx.Z,
				dir_heur_x:   ixn.DirHeuristic.X,
				dir_heur_y:   ixn.DirHeuristic.Y,
				dir_heur_z:   ixn.DirHeuristic.Z,
				dir_lngtrk_x: ixn.DirLngTrk.X,
				dir_lngtrk_y: ixn.DirLngTrk.Y,
				dir_lngtrk_z: ixn.DirLngTrk.Z,
				Enu_calo:     ixn.EnuCalo,
				Enu_lep_calo: ixn.EnuLepCalo,
				npart:        ixn.NPart,
				ntruth:       int32(len(ixn.Truth)),
			})
			for i, truth := range ixn.Truth {
				truthRows = append(truthRows, RecoTruthHDF5{
					entry:   entry,
					algo:    int32(algo),
					slot:    int32(slot),
					index:   int32(i),
					truth:   truth,
					overlap: ixn.TruthOverlap[i],
				})
			}
		}
	}
	if err := appendRows(w.tables[recoIxnTableName], ixnRows); err != nil {
		return err
	}
	return appendRows(w.tables[recoTruthTableName], truthRows)
}

func (w *Writer) writeND(entry int64, nd *NDBranch) error {
	rows := make([]NDLArTrackHDF5, len(nd.LAr.DLP))
	for i, trk := range nd.LAr.DLP {
		rows[i] = NDLArTrackHDF5{
			entry:    entry,
			slot:     int32(i),
			start_x:  trk.Start.X,
			start_y:  trk.Start.Y,
			start_z:  trk.Start.Z,
			end_x:    trk.End.X,
			end_y:    trk.End.Y,
			end_z:    trk.End.Z,
			dir_x:    trk.Dir.X,
			dir_y:    trk.Dir.Y,
			dir_z:    trk.Dir.Z,
			enddir_x: trk.EndDir.X,
			enddir_y: trk.EndDir.Y,
			enddir_z: trk.EndDir.Z,
			Enddeps:  trk.Enddeps,
			E:        trk.E,
			len_cm:   trk.Len,
		}
	}
	return appendRows(w.tables[ndLArTableName], rows)
}

func (w *Writer) Close() error {
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Closing file %s after %d entries", w.Filename, w.NEntries), "writer")
	}
	var errs []error

	names := maps.Keys(w.tables)
	slices.Sort(names)
	for _, name := range names {
		if err := w.tables[name].dset.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing table %s: %w", name, err))
		}
	}
	if w.Group != nil {
		if err := w.Group.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing group %s: %w", groupName, err))
		}
	}
	if err := w.File.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
