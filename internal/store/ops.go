package store

import (
	"database/sql"
	"fmt"
)

// --- File operations ---

func (s *Store) InsertFile(f *File) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO files (path, language, hash, line_count, last_indexed) VALUES (?, ?, ?, ?, ?)",
		f.Path, f.Language, f.Hash, f.LineCount, f.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

func (s *Store) FileByPath(path string) (*File, error) {
	f := &File{}
	err := s.db.QueryRow(
		"SELECT id, path, language, hash, line_count, last_indexed FROM files WHERE path = ?", path,
	).Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.LineCount, &f.LastIndexed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

func (s *Store) FileByID(id int64) (*File, error) {
	f := &File{}
	err := s.db.QueryRow(
		"SELECT id, path, language, hash, line_count, last_indexed FROM files WHERE id = ?", id,
	).Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.LineCount, &f.LastIndexed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by id: %w", err)
	}
	return f, nil
}

// Files returns every indexed file ordered by path.
func (s *Store) Files() ([]*File, error) {
	rows, err := s.db.Query(
		"SELECT id, path, language, hash, line_count, last_indexed FROM files ORDER BY path",
	)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f := &File{}
		if err := rows.Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.LineCount, &f.LastIndexed); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// FilesUnder returns files whose path lies under the directory prefix,
// ordered by path. An empty or "." prefix matches everything.
func (s *Store) FilesUnder(prefix string) ([]*File, error) {
	if prefix == "" || prefix == "." {
		return s.Files()
	}
	rows, err := s.db.Query(
		"SELECT id, path, language, hash, line_count, last_indexed FROM files WHERE path = ? OR path LIKE ? ORDER BY path",
		prefix, prefix+"/%",
	)
	if err != nil {
		return nil, fmt.Errorf("files under: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f := &File{}
		if err := rows.Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.LineCount, &f.LastIndexed); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// --- Symbol operations ---

const symbolCols = `s.id, s.file_id, f.path, s.name, s.kind, s.exported,
	s.span_start, s.span_end, s.name_start, s.name_end, s.parent_symbol_id, s.recv, s.extended`

func (s *Store) InsertSymbol(sym *Symbol) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO symbols (file_id, name, kind, exported, span_start, span_end,
			name_start, name_end, parent_symbol_id, recv, extended)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sym.FileID, sym.Name, sym.Kind, sym.Exported,
		sym.Span.Start, sym.Span.End, sym.NameSpan.Start, sym.NameSpan.End,
		sym.ParentSymbolID, sym.Recv, marshalSpans(sym.Extended),
	)
	if err != nil {
		return 0, fmt.Errorf("insert symbol: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	sym.ID = id
	return id, nil
}

func scanSymbol(scanner interface{ Scan(...any) error }) (*Symbol, error) {
	sym := &Symbol{}
	var extended string
	err := scanner.Scan(
		&sym.ID, &sym.FileID, &sym.Path, &sym.Name, &sym.Kind, &sym.Exported,
		&sym.Span.Start, &sym.Span.End, &sym.NameSpan.Start, &sym.NameSpan.End,
		&sym.ParentSymbolID, &sym.Recv, &extended,
	)
	if err != nil {
		return nil, err
	}
	sym.Extended = unmarshalSpans(extended)
	return sym, nil
}

func (s *Store) querySymbols(query string, args ...any) ([]*Symbol, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var symbols []*Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// SymbolByID returns one symbol, or nil when absent.
func (s *Store) SymbolByID(id int64) (*Symbol, error) {
	syms, err := s.querySymbols(
		"SELECT "+symbolCols+" FROM symbols s JOIN files f ON f.id = s.file_id WHERE s.id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(syms) == 0 {
		return nil, nil
	}
	return syms[0], nil
}

// SymbolsByName returns all symbols with the given name, sorted by file
// path then position.
func (s *Store) SymbolsByName(name string) ([]*Symbol, error) {
	return s.querySymbols(
		"SELECT "+symbolCols+` FROM symbols s JOIN files f ON f.id = s.file_id
		 WHERE s.name = ? ORDER BY f.path, s.span_start`, name)
}

func (s *Store) SymbolsByFile(fileID int64) ([]*Symbol, error) {
	return s.querySymbols(
		"SELECT "+symbolCols+` FROM symbols s JOIN files f ON f.id = s.file_id
		 WHERE s.file_id = ? ORDER BY s.span_start`, fileID)
}

func (s *Store) SymbolsByKind(kind string) ([]*Symbol, error) {
	return s.querySymbols(
		"SELECT "+symbolCols+` FROM symbols s JOIN files f ON f.id = s.file_id
		 WHERE s.kind = ? ORDER BY f.path, s.span_start`, kind)
}

// SymbolsUnder returns all symbols in files under a directory prefix.
func (s *Store) SymbolsUnder(prefix string) ([]*Symbol, error) {
	if prefix == "" || prefix == "." {
		return s.querySymbols(
			"SELECT " + symbolCols + ` FROM symbols s JOIN files f ON f.id = s.file_id
			 ORDER BY f.path, s.span_start`)
	}
	return s.querySymbols(
		"SELECT "+symbolCols+` FROM symbols s JOIN files f ON f.id = s.file_id
		 WHERE f.path = ? OR f.path LIKE ? ORDER BY f.path, s.span_start`,
		prefix, prefix+"/%")
}

func (s *Store) SymbolChildren(symbolID int64) ([]*Symbol, error) {
	return s.querySymbols(
		"SELECT "+symbolCols+` FROM symbols s JOIN files f ON f.id = s.file_id
		 WHERE s.parent_symbol_id = ? ORDER BY s.span_start`, symbolID)
}

// ExportedSymbol returns the exported, non-import symbol with the given
// name in one file, or nil.
func (s *Store) ExportedSymbol(fileID int64, name string) (*Symbol, error) {
	syms, err := s.querySymbols(
		"SELECT "+symbolCols+` FROM symbols s JOIN files f ON f.id = s.file_id
		 WHERE s.file_id = ? AND s.name = ? AND s.exported AND s.parent_symbol_id IS NULL
		 ORDER BY s.span_start`, fileID, name)
	if err != nil {
		return nil, err
	}
	// Prefer a real declaration over a re-exporting import.
	for _, sym := range syms {
		if !sym.IsImport() {
			return sym, nil
		}
	}
	if len(syms) > 0 {
		return syms[0], nil
	}
	return nil, nil
}

// --- Import operations ---

const importCols = `id, symbol_id, file_id, module, module_start, module_end,
	imported_name, name_start, name_end, local_alias, kind, reexported`

func (s *Store) InsertImport(imp *Import) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO imports (symbol_id, file_id, module, module_start, module_end,
			imported_name, name_start, name_end, local_alias, kind, reexported)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		imp.SymbolID, imp.FileID, imp.Module, imp.ModuleSpan.Start, imp.ModuleSpan.End,
		imp.Name, imp.NameSpan.Start, imp.NameSpan.End, imp.Alias, imp.Kind, imp.ReExported,
	)
	if err != nil {
		return 0, fmt.Errorf("insert import: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	imp.ID = id
	return id, nil
}

func (s *Store) queryImports(query string, args ...any) ([]*Import, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var imports []*Import
	for rows.Next() {
		imp := &Import{}
		if err := rows.Scan(&imp.ID, &imp.SymbolID, &imp.FileID, &imp.Module,
			&imp.ModuleSpan.Start, &imp.ModuleSpan.End,
			&imp.Name, &imp.NameSpan.Start, &imp.NameSpan.End,
			&imp.Alias, &imp.Kind, &imp.ReExported); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		imports = append(imports, imp)
	}
	return imports, rows.Err()
}

func (s *Store) ImportsByFile(fileID int64) ([]*Import, error) {
	return s.queryImports(
		"SELECT "+importCols+" FROM imports WHERE file_id = ? ORDER BY id", fileID)
}

// ImportBySymbol returns the import row attached to an import symbol.
func (s *Store) ImportBySymbol(symbolID int64) (*Import, error) {
	imports, err := s.queryImports(
		"SELECT "+importCols+" FROM imports WHERE symbol_id = ?", symbolID)
	if err != nil {
		return nil, err
	}
	if len(imports) == 0 {
		return nil, nil
	}
	return imports[0], nil
}

// ImportsOfModule returns every import across all files naming the given
// module string.
func (s *Store) ImportsOfModule(module string) ([]*Import, error) {
	return s.queryImports(
		"SELECT "+importCols+" FROM imports WHERE module = ? ORDER BY file_id, id", module)
}

// --- Reference operations ---

const refCols = "r.id, r.file_id, f.path, r.name, r.qualifier, r.context, r.span_start, r.span_end"

func (s *Store) InsertRef(r *Ref) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO refs (file_id, name, qualifier, context, span_start, span_end)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.FileID, r.Name, r.Qualifier, r.Context, r.Span.Start, r.Span.End,
	)
	if err != nil {
		return 0, fmt.Errorf("insert ref: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	r.ID = id
	return id, nil
}

func (s *Store) queryRefs(query string, args ...any) ([]*Ref, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var refs []*Ref
	for rows.Next() {
		r := &Ref{}
		if err := rows.Scan(&r.ID, &r.FileID, &r.Path, &r.Name, &r.Qualifier,
			&r.Context, &r.Span.Start, &r.Span.End); err != nil {
			return nil, fmt.Errorf("scan ref: %w", err)
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// RefsByName returns all references with the given name, sorted by file
// path then position.
func (s *Store) RefsByName(name string) ([]*Ref, error) {
	return s.queryRefs(
		"SELECT "+refCols+` FROM refs r JOIN files f ON f.id = r.file_id
		 WHERE r.name = ? ORDER BY f.path, r.span_start`, name)
}

func (s *Store) RefsByFile(fileID int64) ([]*Ref, error) {
	return s.queryRefs(
		"SELECT "+refCols+` FROM refs r JOIN files f ON f.id = r.file_id
		 WHERE r.file_id = ? ORDER BY r.span_start`, fileID)
}
