package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/klauspost/compress/gzip"

	"github.com/grailbio/base/tsv"

	"github.com/epi2me-labs/fastcat/barcode"
	"github.com/epi2me-labs/fastcat/fastqio"
	"github.com/epi2me-labs/fastcat/histogram"
)

// Failure codes for the parsing/filtering summary printed at exit,
// matching PARSE_CODES in parsing.h: F_ codes are whole-file problems,
// R_ codes are per-record exclusions.
const (
	failFileOK = iota
	failStreamError
	failQualMissing
	failQualTruncated
	failUnknownError
	failRecordOK
	failTooLong
	failTooShort
	failLowQuality
	failDustMasked
	numFailureCodes
)

var failureNames = [numFailureCodes]string{
	"F_FILE_OK", "F_STREAM_ERROR", "F_QUAL_MISSING", "F_QUAL_TRUNCATED",
	"F_UNKNOWN_ERROR", "R_RECORD_OK", "R_TOO_LONG", "R_TOO_SHORT",
	"R_LOW_QUALITY", "R_DUST_MASKED",
}

// group is an output bucket: "unclassified" (barcode 0) or a numbered
// barcode. Demultiplexing shards reads, file handles, and histograms by
// group the way writer.c shards everything by meta->ibarcode.
type group struct {
	dir          string // e.g. "unclassified" or "barcode0007"
	file         *os.File
	gz           *gzip.Writer
	bamWriter    *bam.Writer
	readsWritten int
	fileIndex    int
	lengthHist   histogram.Length
	qualHist     *histogram.Quality
}

func groupDir(ibarcode int) string {
	if ibarcode == 0 {
		return "unclassified"
	}
	return fmt.Sprintf("barcode%04d", ibarcode)
}

func newGroup(dir string) *group {
	return &group{dir: dir, qualHist: histogram.NewQuality(1.0)}
}

// fastWriter owns every output side-effect of a fastcat run: the
// concatenated (or demultiplexed) FASTQ/BAM output, the three optional
// summary TSVs, and per-group length/quality histograms. It mirrors the
// responsibilities of writer.c's _writer struct.
type fastWriter struct {
	outputDir    string // "" => write everything to stdout, undemultiplexed
	histDir      string
	sample       string // sample name, "" when unset; written as its own TSV field
	reheader     bool
	bamOut       bool
	readsPerFile int
	bamHeader    *sam.Header

	groups map[int]*group

	stdoutGZ  *gzip.Writer
	stdoutBAM *bam.Writer

	perRead, perFile, runIDs             *tsv.Writer
	perReadFile, perFileFile, runIDsFile *os.File

	runIDCounts map[string]map[string]int64 // filename -> runid -> count

	failures [numFailureCodes]uint64
}

type writerOpts struct {
	outputDir    string
	histDir      string
	sample       string
	reheader     bool
	bamOut       bool
	readsPerFile int
	perReadPath  string
	perFilePath  string
	runIDsPath   string
}

func newFastWriter(opts writerOpts) (*fastWriter, error) {
	w := &fastWriter{
		outputDir:    opts.outputDir,
		histDir:      opts.histDir,
		reheader:     opts.reheader,
		bamOut:       opts.bamOut,
		readsPerFile: opts.readsPerFile,
		groups:       map[int]*group{},
		runIDCounts:  map[string]map[string]int64{},
	}
	w.sample = opts.sample

	hdr, err := sam.NewHeader(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("fastcat: building BAM header: %w", err)
	}
	w.bamHeader = hdr

	if w.outputDir != "" {
		if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
			return nil, fmt.Errorf("fastcat: creating output directory %s: %w", w.outputDir, err)
		}
	} else {
		if w.histDir != "" {
			if err := os.MkdirAll(w.histDir, 0o755); err != nil {
				return nil, fmt.Errorf("fastcat: creating histogram directory %s: %w", w.histDir, err)
			}
		}
		w.groups[0] = newGroup("")
	}

	if opts.perReadPath != "" {
		f, err := os.Create(opts.perReadPath)
		if err != nil {
			return nil, err
		}
		w.perReadFile = f
		w.perRead = tsv.NewWriter(f)
		w.writePerReadHeader()
		if err := w.perRead.EndLine(); err != nil {
			return nil, err
		}
	}
	if opts.perFilePath != "" {
		f, err := os.Create(opts.perFilePath)
		if err != nil {
			return nil, err
		}
		w.perFileFile = f
		w.perFile = tsv.NewWriter(f)
		w.writePerFileHeader()
		if err := w.perFile.EndLine(); err != nil {
			return nil, err
		}
	}
	if opts.runIDsPath != "" {
		f, err := os.Create(opts.runIDsPath)
		if err != nil {
			return nil, err
		}
		w.runIDsFile = f
		w.runIDs = tsv.NewWriter(f)
		w.writeRunIDsHeader()
		if err := w.runIDs.EndLine(); err != nil {
			return nil, err
		}
	}

	if w.outputDir == "" && w.bamOut {
		bw, err := bam.NewWriter(os.Stdout, w.bamHeader, 1)
		if err != nil {
			return nil, fmt.Errorf("fastcat: opening BAM stdout writer: %w", err)
		}
		w.stdoutBAM = bw
	}

	return w, nil
}

func writeHeaderCols(w *tsv.Writer, cols []string) {
	for _, c := range cols {
		w.WriteString(c)
	}
}

func (w *fastWriter) writePerReadHeader() {
	cols := []string{"read_id", "filename", "runid"}
	if w.sample != "" {
		cols = append(cols, "sample_name")
	}
	cols = append(cols, "read_length", "mean_quality", "channel", "read_number", "start_time")
	writeHeaderCols(w.perRead, cols)
}

func (w *fastWriter) writePerFileHeader() {
	cols := []string{"filename"}
	if w.sample != "" {
		cols = append(cols, "sample_name")
	}
	cols = append(cols, "n_seqs", "n_bases", "min_length", "max_length", "mean_quality")
	cols = append(cols, failureNames[:]...)
	writeHeaderCols(w.perFile, cols)
}

func (w *fastWriter) writeRunIDsHeader() {
	cols := []string{"filename"}
	if w.sample != "" {
		cols = append(cols, "sample_name")
	}
	cols = append(cols, "run_id", "count")
	writeHeaderCols(w.runIDs, cols)
}

// tagsAux builds the SAM aux fields for -bam-out from meta's comment
// tokens, reusing the same (code, value) pairs --reheader renders as text.
func tagsAux(meta barcode.Meta) sam.AuxFields {
	tags := meta.Tags()
	aux := make(sam.AuxFields, 0, len(tags))
	for _, kv := range tags {
		a, err := sam.NewAux(sam.NewTag(kv[0]), kv[1])
		if err != nil {
			continue
		}
		aux = append(aux, a)
	}
	return aux
}

// groupFor returns (creating if necessary) the group for ibarcode, the way
// write_read allocates l_stats/q_stats on first sight of a barcode.
func (w *fastWriter) groupFor(ibarcode int) *group {
	g, ok := w.groups[ibarcode]
	if ok {
		return g
	}
	g = newGroup(groupDir(ibarcode))
	w.groups[ibarcode] = g
	return g
}

// openGroupFile opens (or rotates) g's output handle, matching
// create_filepath's directory/filename convention and reads_per_file
// rotation.
func (w *fastWriter) openGroupFile(g *group) error {
	if w.readsPerFile != 0 && g.readsWritten == w.readsPerFile {
		if err := w.closeGroupFile(g); err != nil {
			return err
		}
		g.fileIndex++
		g.readsWritten = 0
	}
	if g.file != nil {
		return nil
	}
	dirPath := filepath.Join(w.outputDir, g.dir)
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return err
	}
	suffix := ""
	if w.readsPerFile != 0 {
		suffix = fmt.Sprintf("_%04d", g.fileIndex)
	}
	ext := ".fastq.gz"
	if w.bamOut {
		ext = ".bam"
	}
	name := g.dir + suffix + ext
	f, err := os.Create(filepath.Join(dirPath, name))
	if err != nil {
		return err
	}
	g.file = f
	if w.bamOut {
		bw, err := bam.NewWriter(f, w.bamHeader, 1)
		if err != nil {
			return err
		}
		g.bamWriter = bw
	} else {
		g.gz = gzip.NewWriter(f)
	}
	return nil
}

func (w *fastWriter) closeGroupFile(g *group) error {
	if g.bamWriter != nil {
		if err := g.bamWriter.Close(); err != nil {
			return err
		}
		g.bamWriter = nil
	}
	if g.gz != nil {
		if err := g.gz.Close(); err != nil {
			return err
		}
		g.gz = nil
	}
	if g.file != nil {
		if err := g.file.Close(); err != nil {
			return err
		}
		g.file = nil
	}
	return nil
}

// writeRead emits one record to the appropriate sink, updates its group's
// histograms and the per-read/runid summaries, matching write_read.
func (w *fastWriter) writeRead(rec fastqio.Record, meta barcode.Meta, meanQ float64, fname string) error {
	if w.perRead != nil {
		w.perRead.WriteString(rec.Name)
		w.perRead.WriteString(fname)
		w.perRead.WriteString(meta.RunID)
		if w.sample != "" {
			w.perRead.WriteString(w.sample)
		}
		w.perRead.WriteInt64(int64(len(rec.Seq)))
		w.perRead.WriteString(formatFloat(meanQ))
		w.perRead.WriteInt64(int64(meta.Channel))
		w.perRead.WriteInt64(int64(meta.ReadNumber))
		w.perRead.WriteString(meta.StartTime)
		if err := w.perRead.EndLine(); err != nil {
			return err
		}
	}

	if meta.RunID != "" {
		byFile := w.runIDCounts[fname]
		if byFile == nil {
			byFile = map[string]int64{}
			w.runIDCounts[fname] = byFile
		}
		byFile[meta.RunID]++
	}

	if w.outputDir == "" {
		g := w.groupFor(0)
		g.lengthHist.Add(len(rec.Seq))
		g.qualHist.Add(meanQ)
		if w.bamOut {
			return w.stdoutBAM.Write(readToRecord(rec, meta, w.reheader))
		}
		return writeFastqTo(w.stdoutGZOrNil(), rec, meta, w.reheader)
	}

	g := w.groupFor(meta.IBarcode)
	if err := w.openGroupFile(g); err != nil {
		return err
	}
	g.readsWritten++
	g.lengthHist.Add(len(rec.Seq))
	g.qualHist.Add(meanQ)
	if w.bamOut {
		return g.bamWriter.Write(readToRecord(rec, meta, w.reheader))
	}
	return writeFastqTo(g.gz, rec, meta, w.reheader)
}

// stdoutGZOrNil lazily wraps stdout in a gzip writer the first time it's
// needed, so a run that filters away every read never opens an (empty)
// gzip stream.
func (w *fastWriter) stdoutGZOrNil() *gzip.Writer {
	if w.stdoutGZ == nil {
		w.stdoutGZ = gzip.NewWriter(os.Stdout)
	}
	return w.stdoutGZ
}

func writeFastqTo(gz *gzip.Writer, rec fastqio.Record, meta barcode.Meta, reheader bool) error {
	out := rec
	if reheader {
		out.Comment = meta.TagsString()
	}
	return fastqio.WriteRecord(gz, out)
}

func readToRecord(rec fastqio.Record, meta barcode.Meta, reheader bool) *sam.Record {
	r := &sam.Record{
		Name:  rec.Name,
		Flags: sam.Unmapped,
		Pos:   -1,
		Seq:   sam.NewSeq(rec.Seq),
		Qual:  asciiToPhred(rec.Qual),
	}
	if reheader {
		r.AuxFields = tagsAux(meta)
	}
	return r
}

func asciiToPhred(qual []byte) []byte {
	out := make([]byte, len(qual))
	for i, q := range qual {
		out[i] = q - 33
	}
	return out
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// addFailure tallies a parsing/filtering outcome, matching failures[code]++.
func (w *fastWriter) addFailure(code int) { w.failures[code]++ }

// close flushes and closes every sink, matching destroy_writer: each
// group's output file and length/quality histograms first, then the
// stdout streams and the per-read, run-ID and per-file summaries.
func (w *fastWriter) close() error {
	for ibarcode, g := range w.groups {
		if err := w.closeGroupFile(g); err != nil {
			return err
		}
		if err := w.writeGroupHistograms(ibarcode, g); err != nil {
			return err
		}
	}
	if w.stdoutGZ != nil {
		if err := w.stdoutGZ.Close(); err != nil {
			return err
		}
	}
	if w.stdoutBAM != nil {
		if err := w.stdoutBAM.Close(); err != nil {
			return err
		}
	}
	if w.perRead != nil {
		if err := w.perRead.Flush(); err != nil {
			return err
		}
		if err := w.perReadFile.Close(); err != nil {
			return err
		}
	}
	if w.runIDs != nil {
		for fname, counts := range w.runIDCounts {
			for runid, count := range counts {
				w.runIDs.WriteString(fname)
				if w.sample != "" {
					w.runIDs.WriteString(w.sample)
				}
				w.runIDs.WriteString(runid)
				w.runIDs.WriteInt64(count)
				if err := w.runIDs.EndLine(); err != nil {
					return err
				}
			}
		}
		if err := w.runIDs.Flush(); err != nil {
			return err
		}
		if err := w.runIDsFile.Close(); err != nil {
			return err
		}
	}
	if w.perFile != nil {
		if err := w.perFile.Flush(); err != nil {
			return err
		}
		if err := w.perFileFile.Close(); err != nil {
			return err
		}
	}
	return nil
}

func (w *fastWriter) writeGroupHistograms(ibarcode int, g *group) error {
	if w.histDir == "" && w.outputDir == "" {
		return nil
	}
	var lengthPath, qualPath string
	if w.outputDir == "" {
		lengthPath = filepath.Join(w.histDir, "length.hist")
		qualPath = filepath.Join(w.histDir, "quality.hist")
	} else {
		dir := filepath.Join(w.outputDir, groupDir(ibarcode))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		lengthPath = filepath.Join(dir, groupDir(ibarcode)+".length.hist")
		qualPath = filepath.Join(dir, groupDir(ibarcode)+".quality.hist")
	}
	lf, err := os.Create(lengthPath)
	if err != nil {
		return err
	}
	if err := g.lengthHist.WriteTSV(lf); err != nil {
		return err
	}
	if err := lf.Close(); err != nil {
		return err
	}
	qf, err := os.Create(qualPath)
	if err != nil {
		return err
	}
	if err := g.qualHist.WriteTSV(qf); err != nil {
		return err
	}
	return qf.Close()
}

// writePerFileSummary writes one row of the per-file summary plus its
// trailing failure-code tally columns, matching main.c's
// fprintf(writer->perfile, ...) block at the end of process_file.
func (w *fastWriter) writePerFileSummary(fname string, n, totalBases, minLen, maxLen int, meanQ float64, failures [numFailureCodes]uint64) error {
	if w.perFile == nil {
		return nil
	}
	w.perFile.WriteString(fname)
	if w.sample != "" {
		w.perFile.WriteString(w.sample)
	}
	if n == 0 {
		w.perFile.WriteString("0")
		w.perFile.WriteString("0")
		w.perFile.WriteString("0")
		w.perFile.WriteString("0")
		w.perFile.WriteString("0.00")
	} else {
		w.perFile.WriteInt64(int64(n))
		w.perFile.WriteInt64(int64(totalBases))
		w.perFile.WriteInt64(int64(minLen))
		w.perFile.WriteInt64(int64(maxLen))
		w.perFile.WriteString(formatFloat(meanQ))
	}
	for _, code := range failures {
		w.perFile.WriteInt64(int64(code))
	}
	return w.perFile.EndLine()
}
