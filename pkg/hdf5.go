package caf

import (
	"fmt"

	"github.com/jmbenlloch/go-hdf5"
)

// Layout version of the flat tables. Bump when a row type changes.
const SchemaVersion = 1

const (
	groupName           = "caf"
	schemaTableName     = "schema"
	recordsTableName    = "records"
	metaTableName       = "meta"
	nuTableName         = "mc_nu"
	particlesTableName  = "mc_particles"
	crazyFluxTableName  = "wgt_CrazyFlux"
	cvwgtTableName      = "cvwgt"
	xsSystSizeTableName = "xsSyst_nuniv"
	xsSystTableName     = "xsSyst_wgt"
	recoIxnTableName    = "common_ixn"
	recoTruthTableName  = "common_ixn_truth"
	ndLArTableName      = "nd_lar_dlp"
)

// Row types of the flat tables. HDF5 compound member names are taken from
// the Go field names, so these stay lower case. Every row carries the
// entry it belongs to; rows of one entry are contiguous and in order.

type SchemaHDF5 struct {
	n_detectors int32
	version     int32
}

type RecordHDF5 struct {
	entry               int64
	active_detectors    uint32
	nnu                 uint64
	ndlp                uint64
	npandora            uint64
	nd_lar_ndlp         uint64
	nwgt_CrazyFlux      int32
	n_xsSyst            int32
	total_xsSyst_cv_wgt float32
	perPOTWeight        float64
	NDMassCorrWeight    float64
	SpecialRunWeight    float64
	SpecialHCRunId      int32
	OffAxisFluxBin      int32
	OffAxisFluxConfig   int32
	abspos_x            float64
	EVisReco_ND         float64
	EVisReco_numu       float64
	EVisReco_nue        float64
	HadEVisReco_ND      float64
	HadEVisReco_FD      float64
	VisTrue_NDFD        float64
	ProxyRecoLepE       float64
	eRecProxy           float64
	HadE                float64
	ePipm               float64
	eTotalPi0           float64
}

type MetaHDF5 struct {
	entry         int64
	detector      int32
	enabled       int8
	run           uint32
	subrun        uint32
	event         uint32
	subevt        uint32
	start_time    float64
	end_time      float64
	pot           float32
	lifetime_corr float32
}

type TrueInteractionHDF5 struct {
	entry      int64
	index      int32
	id         int64
	pdg        int32
	target_pdg int32
	mode       int32
	iscc       int8
	E          float32
	vtx_x      float32
	vtx_y      float32
	vtx_z      float32
	xsec_cvwgt float32
	nprim      uint32
	nprefsi    uint32
	nsec       uint32
}

type TrueParticleHDF5 struct {
	entry          int64
	ixn_index      int32
	list           int32
	slot           int32
	id_ixn         int64
	id_type        int32
	id_part        int32
	pdg            int32
	G4ID           int32
	interaction_id int64
	time_start     float32
	parent         int32
	p_px           float32
	p_py           float32
	p_pz           float32
	p_E            float32
	start_x        float32
	start_y        float32
	start_z        float32
	end_x          float32
	end_y          float32
	end_z          float32
	start_process  int32
	end_process    int32
}

type WeightHDF5 struct {
	entry int64
	index int32
	value float32
}

type XsSystSizeHDF5 struct {
	entry int64
	syst  int32
	nuniv int32
}

type XsSystWeightHDF5 struct {
	entry int64
	syst  int32
	univ  int32
	value float32
}

type RecoInteractionHDF5 struct {
	entry        int64
	algo         int32
	slot         int32
	id           int64
	vtx_x        float32
	vtx_y        float32
	vtx_z        float32
	dir_heur_x   float32
	dir_heur_y   float32
	dir_heur_z   float32
	dir_lngtrk_x float32
	dir_lngtrk_y float32
	dir_lngtrk_z float32
	Enu_calo     float32
	Enu_lep_calo float32
	npart        uint32
	ntruth       int32
}

type RecoTruthHDF5 struct {
	entry   int64
	algo    int32
	slot    int32
	index   int32
	truth   int64
	overlap float32
}

type NDLArTrackHDF5 struct {
	entry    int64
	slot     int32
	start_x  float32
	start_y  float32
	start_z  float32
	end_x    float32
	end_y    float32
	end_z    float32
	dir_x    float32
	dir_y    float32
	dir_z    float32
	enddir_x float32
	enddir_y float32
	enddir_z float32
	Enddeps  float32
	E        float32
	len_cm   float32
}

// table is an extendible one dimensional dataset and the number of rows
// written to it so far.
type table struct {
	name string
	dset *hdf5.Dataset
	rows uint
}

func createFile(fname string) (*hdf5.File, error) {
	f, err := hdf5.CreateFile(fname, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, &ErrOpenFile{Filename: fname, Err: err}
	}
	return f, nil
}

func openFile(fname string) (*hdf5.File, error) {
	f, err := hdf5.OpenFile(fname, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, &ErrOpenFile{Filename: fname, Err: err}
	}
	return f, nil
}

func createGroup(file *hdf5.File, name string) (*hdf5.Group, error) {
	g, err := file.CreateGroup(name)
	if err != nil {
		return nil, &ErrCreateGroup{GroupName: name, Err: err}
	}
	return g, nil
}

func createTable(group *hdf5.Group, name string, datatype interface{}) (*table, error) {
	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer fileSpace.Close()

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer plist.Close()

	chunkSize := configuration.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultConfiguration().ChunkSize
	}
	if err := plist.SetChunk([]uint{uint(chunkSize)}); err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	if configuration.CompressionLevel > 0 {
		if err := plist.SetDeflate(configuration.CompressionLevel); err != nil {
			return nil, &ErrCreateTable{TableName: name, Err: err}
		}
	}

	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer dtype.Close()

	dset, err := group.CreateDatasetWith(name, dtype, fileSpace, plist)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	if configuration.Verbosity > 2 {
		logger.Info(fmt.Sprintf("Created table %s", name), "hdf5")
	}
	return &table{name: name, dset: dset}, nil
}

// appendRows extends t by len(rows) and writes them at the end.
func appendRows[T any](t *table, rows []T) error {
	length := uint(len(rows))
	if length == 0 {
		return nil
	}
	memSpace, err := hdf5.CreateSimpleDataspace([]uint{length}, nil)
	if err != nil {
		return fmt.Errorf("error writing table %s: %w", t.name, err)
	}
	defer memSpace.Close()

	if err := t.dset.Resize([]uint{t.rows + length}); err != nil {
		return fmt.Errorf("error extending table %s: %w", t.name, err)
	}
	fileSpace := t.dset.Space()
	defer fileSpace.Close()

	start := []uint{t.rows}
	count := []uint{length}
	if err := fileSpace.SelectHyperslab(start, nil, count, nil); err != nil {
		return fmt.Errorf("error selecting rows of table %s: %w", t.name, err)
	}
	if err := t.dset.WriteSubset(&rows, memSpace, fileSpace); err != nil {
		return fmt.Errorf("error writing table %s: %w", t.name, err)
	}
	t.rows += length
	return nil
}

// readTable reads every row of the named table in group.
func readTable[T any](group *hdf5.Group, name string) ([]T, error) {
	dset, err := group.OpenDataset(name)
	if err != nil {
		return nil, &ErrReadTable{TableName: name, Err: err}
	}
	defer dset.Close()

	space := dset.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, &ErrReadTable{TableName: name, Err: err}
	}
	if len(dims) != 1 {
		return nil, &ErrReadTable{TableName: name, Err: fmt.Errorf("expected 1 dimension, found %d", len(dims))}
	}
	// Must be allocated before reading, HDF5 writes into the backing array
	rows := make([]T, dims[0])
	if len(rows) == 0 {
		return rows, nil
	}
	if err := dset.Read(&rows); err != nil {
		return nil, &ErrReadTable{TableName: name, Err: err}
	}
	return rows, nil
}

func boolToInt8(b bool) int8 {
	if b {
		return 1
	}
	return 0
}
