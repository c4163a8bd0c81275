package caf

import (
	"errors"
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

type Reader struct {
	File     *hdf5.File
	Filename string
	Group    *hdf5.Group
	nEntries int
}

// OpenReader opens a file written by Writer. Files laid out for a different
// detector list are refused, since their meta rows would land in the wrong
// slots.
func OpenReader(filename string) (*Reader, error) {
	file, err := openFile(filename)
	if err != nil {
		return nil, err
	}
	reader := &Reader{File: file, Filename: filename}
	reader.Group, err = file.OpenGroup(groupName)
	if err != nil {
		file.Close()
		return nil, &ErrOpenFile{Filename: filename, Err: fmt.Errorf("missing group %s: %w", groupName, err)}
	}

	schema, err := readTable[SchemaHDF5](reader.Group, schemaTableName)
	if err != nil {
		return nil, errors.Join(err, reader.Close())
	}
	if len(schema) != 1 || schema[0].n_detectors != int32(NDetectors) || schema[0].version != SchemaVersion {
		mismatch := &ErrSchemaMismatch{Filename: filename, NDetectors: -1, Version: -1}
		if len(schema) > 0 {
			mismatch.NDetectors = schema[0].n_detectors
			mismatch.Version = schema[0].version
		}
		return nil, errors.Join(mismatch, reader.Close())
	}

	records, err := readTable[RecordHDF5](reader.Group, recordsTableName)
	if err != nil {
		return nil, errors.Join(err, reader.Close())
	}
	reader.nEntries = len(records)
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Opened %s with %d entries", filename, reader.nEntries), "reader")
	}
	return reader, nil
}

func (r *Reader) NEntries() int {
	return r.nEntries
}

// ReadAll rebuilds every record of the file in entry order. Entries whose
// stored counts disagree with their vectors make ReadAll fail unless the
// configuration enables count repair.
func (r *Reader) ReadAll() ([]*StandardRecord, error) {
	records, err := r.ReadRaw()
	if err != nil {
		return nil, err
	}
	for i, rec := range records {
		err := rec.Validate()
		if err == nil {
			continue
		}
		if !configuration.RepairCounts {
			return nil, fmt.Errorf("entry %d of %s: %w", i, r.Filename, err)
		}
		logger.Error(fmt.Sprintf("repairing counts of entry %d of %s: %v", i, r.Filename, err))
		rec.RepairCounts()
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d of %s: %w", i, r.Filename, err)
		}
	}
	return records, nil
}

// ReadRaw rebuilds every record exactly as stored, counts included, without
// checking them.
func (r *Reader) ReadRaw() ([]*StandardRecord, error) {
	recordRows, err := readTable[RecordHDF5](r.Group, recordsTableName)
	if err != nil {
		return nil, err
	}
	records := make([]*StandardRecord, len(recordRows))
	for i, row := range recordRows {
		if row.entry != int64(i) {
			return nil, &ErrReadTable{TableName: recordsTableName, Err: fmt.Errorf("row %d holds entry %d", i, row.entry)}
		}
		rec, err := recordFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		records[i] = rec
	}

	steps := []func([]*StandardRecord) error{
		r.readMeta,
		r.readTruth,
		r.readWeights,
		r.readReco,
		r.readND,
	}
	for _, step := range steps {
		if err := step(records); err != nil {
			return nil, err
		}
	}

	return records, nil
}

func recordFromRow(row RecordHDF5) (*StandardRecord, error) {
	rec := NewStandardRecord()
	active, err := DetectorSetFromBits(row.active_detectors)
	if err != nil {
		return nil, err
	}
	rec.ActiveDetectors = active
	rec.MC.NNu = row.nnu
	rec.Common.Ixn.NDLP = row.ndlp
	rec.Common.Ixn.NPandora = row.npandora
	rec.ND.LAr.NDLP = row.nd_lar_ndlp
	rec.NwgtCrazyFlux = row.nwgt_CrazyFlux
	rec.TotalXsSystCVWgt = row.total_xsSyst_cv_wgt
	if row.n_xsSyst > 0 {
		rec.XsSystWgt = make([][]float32, row.n_xsSyst)
	}
	rec.Deprecated = DeprecatedPRISM{
		PerPOTWeight:      row.perPOTWeight,
		NDMassCorrWeight:  row.NDMassCorrWeight,
		SpecialRunWeight:  row.SpecialRunWeight,
		SpecialHCRunID:    row.SpecialHCRunId,
		OffAxisFluxBin:    row.OffAxisFluxBin,
		OffAxisFluxConfig: row.OffAxisFluxConfig,
		AbsPosX:           row.abspos_x,
		EVisRecoND:        row.EVisReco_ND,
		EVisRecoNumu:      row.EVisReco_numu,
		EVisRecoNue:       row.EVisReco_nue,
		HadEVisRecoND:     row.HadEVisReco_ND,
		HadEVisRecoFD:     row.HadEVisReco_FD,
		VisTrueNDFD:       row.VisTrue_NDFD,
		ProxyRecoLepE:     row.ProxyRecoLepE,
		ERecProxy:         row.eRecProxy,
		HadE:              row.HadE,
		EPipm:             row.ePipm,
		ETotalPi0:         row.eTotalPi0,
	}
	return rec, nil
}

func entryOf(records []*StandardRecord, tableName string, entry int64) (*StandardRecord, error) {
	if entry < 0 || entry >= int64(len(records)) {
		return nil, &ErrReadTable{TableName: tableName, Err: fmt.Errorf("entry %d out of range", entry)}
	}
	return records[entry], nil
}

// rowKey locates a vector inside an entry: an algorithm or particle list and
// a slot in it.
type rowKey struct {
	entry int64
	list  int32
	slot  int32
}

// outOfOrder reports a row whose position does not follow the rows already
// read for its entry.
func outOfOrder(tableName string, entry int64, got int32, want int) error {
	return &ErrReadTable{
		TableName: tableName,
		Err:       fmt.Errorf("entry %d: row for index %d found where %d was expected", entry, got, want),
	}
}

func (r *Reader) readMeta(records []*StandardRecord) error {
	rows, err := readTable[MetaHDF5](r.Group, metaTableName)
	if err != nil {
		return err
	}
	if len(rows) != len(records)*NDetectors {
		return &ErrReadTable{
			TableName: metaTableName,
			Err:       fmt.Errorf("%d rows for %d entries of %d detectors", len(rows), len(records), NDetectors),
		}
	}
	for i, row := range rows {
		if row.entry != int64(i/NDetectors) || row.detector != int32(i%NDetectors) {
			return outOfOrder(metaTableName, row.entry, row.detector, i%NDetectors)
		}
		records[row.entry].Meta[row.detector] = DetectorMeta{
			Enabled:      row.enabled != 0,
			Run:          row.run,
			Subrun:       row.subrun,
			Event:        row.event,
			Subevt:       row.subevt,
			StartTime:    row.start_time,
			EndTime:      row.end_time,
			Pot:          row.pot,
			LifetimeCorr: row.lifetime_corr,
		}
	}
	return nil
}

func (r *Reader) readTruth(records []*StandardRecord) error {
	ixnRows, err := readTable[TrueInteractionHDF5](r.Group, nuTableName)
	if err != nil {
		return err
	}
	for _, row := range ixnRows {
		rec, err := entryOf(records, nuTableName, row.entry)
		if err != nil {
			return err
		}
		if int(row.index) != len(rec.MC.Nu) {
			return outOfOrder(nuTableName, row.entry, row.index, len(rec.MC.Nu))
		}
		// Append directly: NNu keeps the stored value
		rec.MC.Nu = append(rec.MC.Nu, TrueInteraction{
			ID:        row.id,
			PDG:       row.pdg,
			TargetPDG: row.target_pdg,
			Mode:      row.mode,
			IsCC:      row.iscc != 0,
			E:         row.E,
			Vtx:       Vector3D{X: row.vtx_x, Y: row.vtx_y, Z: row.vtx_z},
			XsecCVWgt: row.xsec_cvwgt,
			NPrim:     row.nprim,
			NPrefSI:   row.nprefsi,
			NSec:      row.nsec,
		})
	}

	particleRows, err := readTable[TrueParticleHDF5](r.Group, particlesTableName)
	if err != nil {
		return err
	}
	for _, row := range particleRows {
		rec, err := entryOf(records, particlesTableName, row.entry)
		if err != nil {
			return err
		}
		if row.ixn_index < 0 || int(row.ixn_index) >= len(rec.MC.Nu) {
			return &ErrReadTable{
				TableName: particlesTableName,
				Err:       fmt.Errorf("entry %d: interaction %d out of range", row.entry, row.ixn_index),
			}
		}
		list := rec.MC.Nu[row.ixn_index].particles(ParticleType(row.list))
		if list == nil {
			return &ErrReadTable{
				TableName: particlesTableName,
				Err:       fmt.Errorf("entry %d: unknown particle list %d", row.entry, row.list),
			}
		}
		if int(row.slot) != len(*list) {
			return outOfOrder(particlesTableName, row.entry, row.slot, len(*list))
		}
		*list = append(*list, TrueParticle{
			ID:            ParticleID{Ixn: row.id_ixn, Type: ParticleType(row.id_type), Part: row.id_part},
			PDG:           row.pdg,
			G4ID:          row.G4ID,
			InteractionID: row.interaction_id,
			TimeStart:     row.time_start,
			Parent:        row.parent,
			P:             LorentzVector{Px: row.p_px, Py: row.p_py, Pz: row.p_pz, E: row.p_E},
			Start:         Vector3D{X: row.start_x, Y: row.start_y, Z: row.start_z},
			End:           Vector3D{X: row.end_x, Y: row.end_y, Z: row.end_z},
			StartProcess:  row.start_process,
			EndProcess:    row.end_process,
		})
	}
	return nil
}

func readWeightTable(group *hdf5.Group, name string, records []*StandardRecord,
	target func(*StandardRecord) *[]float32) error {
	rows, err := readTable[WeightHDF5](group, name)
	if err != nil {
		return err
	}
	for _, row := range rows {
		rec, err := entryOf(records, name, row.entry)
		if err != nil {
			return err
		}
		weights := target(rec)
		if int(row.index) != len(*weights) {
			return outOfOrder(name, row.entry, row.index, len(*weights))
		}
		*weights = append(*weights, row.value)
	}
	return nil
}

func (r *Reader) readWeights(records []*StandardRecord) error {
	err := readWeightTable(r.Group, crazyFluxTableName, records,
		func(rec *StandardRecord) *[]float32 { return &rec.WgtCrazyFlux })
	if err != nil {
		return err
	}
	err = readWeightTable(r.Group, cvwgtTableName, records,
		func(rec *StandardRecord) *[]float32 { return &rec.CVWgt })
	if err != nil {
		return err
	}

	sizes, err := readTable[XsSystSizeHDF5](r.Group, xsSystSizeTableName)
	if err != nil {
		return err
	}
	nuniv := make(map[rowKey]int32)
	nsyst := make(map[int64]int)
	for _, row := range sizes {
		rec, err := entryOf(records, xsSystSizeTableName, row.entry)
		if err != nil {
			return err
		}
		if int(row.syst) != nsyst[row.entry] {
			return outOfOrder(xsSystSizeTableName, row.entry, row.syst, nsyst[row.entry])
		}
		if int(row.syst) >= len(rec.XsSystWgt) || row.nuniv < 0 {
			return &ErrReadTable{
				TableName: xsSystSizeTableName,
				Err:       fmt.Errorf("entry %d: systematic %d with %d universes out of range", row.entry, row.syst, row.nuniv),
			}
		}
		rec.XsSystWgt[row.syst] = make([]float32, 0, row.nuniv)
		nuniv[rowKey{entry: row.entry, slot: row.syst}] = row.nuniv
		nsyst[row.entry]++
	}
	for i, rec := range records {
		if n := nsyst[int64(i)]; n != len(rec.XsSystWgt) {
			return fmt.Errorf("entry %d: %w", i,
				&CountMismatchError{Field: "n_xsSyst", Count: uint64(len(rec.XsSystWgt)), Length: n})
		}
	}

	values, err := readTable[XsSystWeightHDF5](r.Group, xsSystTableName)
	if err != nil {
		return err
	}
	for _, row := range values {
		rec, err := entryOf(records, xsSystTableName, row.entry)
		if err != nil {
			return err
		}
		if row.syst < 0 || int(row.syst) >= len(rec.XsSystWgt) {
			return &ErrReadTable{
				TableName: xsSystTableName,
				Err:       fmt.Errorf("entry %d: systematic %d out of range", row.entry, row.syst),
			}
		}
		universes := &rec.XsSystWgt[row.syst]
		if int(row.univ) != len(*universes) {
			return outOfOrder(xsSystTableName, row.entry, row.univ, len(*universes))
		}
		*universes = append(*universes, row.value)
	}
	for i, rec := range records {
		for syst, universes := range rec.XsSystWgt {
			want := nuniv[rowKey{entry: int64(i), slot: int32(syst)}]
			if len(universes) != int(want) {
				return fmt.Errorf("entry %d: %w", i, &CountMismatchError{
					Field:  fmt.Sprintf("xsSyst_wgt[%d].nuniv", syst),
					Count:  uint64(want),
					Length: len(universes),
				})
			}
		}
	}
	return nil
}

func (r *Reader) readReco(records []*StandardRecord) error {
	ixnRows, err := readTable[RecoInteractionHDF5](r.Group, recoIxnTableName)
	if err != nil {
		return err
	}
	ntruth := make(map[rowKey]int32)
	for _, row := range ixnRows {
		rec, err := entryOf(records, recoIxnTableName, row.entry)
		if err != nil {
			return err
		}
		list := recoList(&rec.Common.Ixn, RecoAlgorithm(row.algo))
		if list == nil {
			return &ErrReadTable{
				TableName: recoIxnTableName,
				Err:       fmt.Errorf("entry %d: unknown algorithm %d", row.entry, row.algo),
			}
		}
		if int(row.slot) != len(*list) {
			return outOfOrder(recoIxnTableName, row.entry, row.slot, len(*list))
		}
		ixn := RecoInteraction{
			ID:           row.id,
			Vtx:          Vector3D{X: row.vtx_x, Y: row.vtx_y, Z: row.vtx_z},
			DirHeuristic: Vector3D{X: row.dir_heur_x, Y: row.dir_heur_y, Z: row.dir_heur_z},
			DirLngTrk:    Vector3D{X: row.dir_lngtrk_x, Y: row.dir_lngtrk_y, Z: row.dir_lngtrk_z},
			EnuCalo:      row.Enu_calo,
			EnuLepCalo:   row.Enu_lep_calo,
			NPart:        row.npart,
		}
		if row.ntruth > 0 {
			ixn.Truth = make([]int64, 0, row.ntruth)
			ixn.TruthOverlap = make([]float32, 0, row.ntruth)
		}
		ntruth[rowKey{entry: row.entry, list: row.algo, slot: row.slot}] = row.ntruth
		*list = append(*list, ixn)
	}

	truthRows, err := readTable[RecoTruthHDF5](r.Group, recoTruthTableName)
	if err != nil {
		return err
	}
	for _, row := range truthRows {
		rec, err := entryOf(records, recoTruthTableName, row.entry)
		if err != nil {
			return err
		}
		list := recoList(&rec.Common.Ixn, RecoAlgorithm(row.algo))
		if list == nil || row.slot < 0 || int(row.slot) >= len(*list) {
			return &ErrReadTable{
				TableName: recoTruthTableName,
				Err:       fmt.Errorf("entry %d: no %s interaction %d", row.entry, RecoAlgorithm(row.algo), row.slot),
			}
		}
		ixn := &(*list)[row.slot]
		if int(row.index) != len(ixn.Truth) {
			return outOfOrder(recoTruthTableName, row.entry, row.index, len(ixn.Truth))
		}
		ixn.Truth = append(ixn.Truth, row.truth)
		ixn.TruthOverlap = append(ixn.TruthOverlap, row.overlap)
	}

	// ntruth lives only in the file, so a mismatch means lost or stray rows
	for i, rec := range records {
		for _, algo := range []RecoAlgorithm{AlgoDLP, AlgoPandora} {
			for slot, ixn := range rec.Common.Ixn.Interactions(algo) {
				want := ntruth[rowKey{entry: int64(i), list: int32(algo), slot: int32(slot)}]
				if len(ixn.Truth) != int(want) {
					return fmt.Errorf("entry %d: %w", i, &CountMismatchError{
						Field:  fmt.Sprintf("common.ixn.%s[%d].ntruth", algo, slot),
						Count:  uint64(want),
						Length: len(ixn.Truth),
					})
				}
			}
		}
	}
	return nil
}

func recoList(b *RecoInteractionBranch, algo RecoAlgorithm) *[]RecoInteraction {
	switch algo {
	case AlgoDLP:
		return &b.DLP
	case AlgoPandora:
		return &b.Pandora
	}
	return nil
}

func (r *Reader) readND(records []*StandardRecord) error {
	rows, err := readTable[NDLArTrackHDF5](r.Group, ndLArTableName)
	if err != nil {
		return err
	}
	for _, row := range rows {
		rec, err := entryOf(records, ndLArTableName, row.entry)
		if err != nil {
			return err
		}
		if int(row.slot) != len(rec.ND.LAr.DLP) {
			return outOfOrder(ndLArTableName, row.entry, row.slot, len(rec.ND.LAr.DLP))
		}
		rec.ND.LAr.DLP = append(rec.ND.LAr.DLP, NDLArTrack{
			Start:   Vector3D{X: row.start_x, Y: row.start_y, Z: row.start_z},
			End:     Vector3D{X: row.end_x, Y: row.end_y, Z: row.end_z},
			Dir:     Vector3D{X: row.dir_x, Y: row.dir_y, Z: row.dir_z},
			EndDir:  Vector3D{X: row.enddir_x, Y: row.enddir_y, Z: row.enddir_z},
			Enddeps: row.Enddeps,
			E:       row.E,
			Len:     row.len_cm,
		})
	}
	return nil
}

func (r *Reader) Close() error {
	var errs []error
	if r.Group != nil {
		if err := r.Group.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing group %s: %w", groupName, err))
		}
	}
	if err := r.File.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file: %w", err))
	}
	return errors.Join(errs...)
}
