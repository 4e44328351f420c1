package sdn

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Entry одна запись санкционного списка OFAC SDN в том виде, в каком она
// уходит клиентам и лежит в JSON-кэше.
type Entry struct {
	UID         string    `json:"uid"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	AkaNames    []string  `json:"aka_names,omitempty"`
	Addresses   []Address `json:"addresses,omitempty"`
	Programs    []string  `json:"programs,omitempty"`
	DateOfBirth string    `json:"date_of_birth,omitempty"`
	IDs         []ID      `json:"ids,omitempty"`
	Remarks     string    `json:"remarks,omitempty"`
}

type Address struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

type ID struct {
	Type   string `json:"id_type"`
	Number string `json:"id_number"`
}

// Service скачивает, разбирает и кэширует список SDN. Разобранный XML
// лежит на диске JSON-кэшем; повторное скачивание сбрасывает кэш.
type Service struct {
	logger    *slog.Logger
	listURL   string
	xmlPath   string
	cachePath string
	client    *http.Client

	// Защищает файлы от гонки между воркером обновления и HTTP ручкой.
	mu sync.Mutex
}

func NewService(logger *slog.Logger, listURL, xmlPath, cachePath string, timeout time.Duration) *Service {
	return &Service{
		logger:    logger,
		listURL:   listURL,
		xmlPath:   xmlPath,
		cachePath: cachePath,
		client:    &http.Client{Timeout: timeout},
	}
}

// List возвращает записи из JSON-кэша; при его отсутствии разбирает XML
// и наполняет кэш.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if data, err := os.ReadFile(s.cachePath); err == nil {
		var entries []Entry
		if err := json.Unmarshal(data, &entries); err == nil {
			return entries, nil
		}
		s.logger.WarnContext(ctx, "sdn cache is corrupt, reparsing", "path", s.cachePath)
	}

	return s.parseAndCache(ctx)
}

// Update скачивает свежий список, сбрасывает кэш и возвращает число
// записей после разбора.
func (s *Service) Update(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.download(ctx); err != nil {
		return 0, err
	}

	if err := os.Remove(s.cachePath); err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("failed to clear sdn cache: %w", err)
	}

	entries, err := s.parseAndCache(ctx)
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "sdn list updated", "entries", len(entries))
	return len(entries), nil
}

func (s *Service) download(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.listURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build sdn request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download sdn list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sdn download returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read sdn response: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.xmlPath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(s.xmlPath, body, 0o644); err != nil {
		return fmt.Errorf("failed to save sdn xml: %w", err)
	}

	return nil
}

func (s *Service) parseAndCache(ctx context.Context) ([]Entry, error) {
	entries, err := parseFile(s.xmlPath)
	if err != nil {
		return nil, err
	}

	if err := s.writeCache(entries); err != nil {
		// Кэш не критичен: запрос обслуживаем, следующий разберет XML снова.
		s.logger.WarnContext(ctx, "failed to write sdn cache", "error", err)
	}

	return entries, nil
}

func (s *Service) writeCache(entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.cachePath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.cachePath, data, 0o644)
}

// Разметка файла SDN.XML; совпадение по локальным именам, пространство
// имен OFAC время от времени меняет.
type xmlFile struct {
	XMLName xml.Name   `xml:"sdnList"`
	Entries []xmlEntry `xml:"sdnEntry"`
}

type xmlEntry struct {
	UID        string       `xml:"uid"`
	FirstName  string       `xml:"firstName"`
	MiddleName string       `xml:"middleName"`
	LastName   string       `xml:"lastName"`
	SDNType    string       `xml:"sdnType"`
	Akas       []xmlAka     `xml:"akaList>aka"`
	Addresses  []xmlAddress `xml:"addressList>address"`
	Programs   []string     `xml:"programList>program"`
	DOBs       []string     `xml:"dateOfBirthList>dateOfBirthItem>dateOfBirth"`
	IDs        []xmlID      `xml:"idList>id"`
	Remarks    string       `xml:"remarks"`
}

type xmlAka struct {
	LastName string `xml:"lastName"`
}

type xmlAddress struct {
	City    string `xml:"city"`
	Country string `xml:"country"`
}

type xmlID struct {
	Type   string `xml:"idType"`
	Number string `xml:"idNumber"`
}

func parseFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sdn xml: %w", err)
	}

	var file xmlFile
	if err := xml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse sdn xml: %w", err)
	}

	entries := make([]Entry, 0, len(file.Entries))
	for _, raw := range file.Entries {
		entry := Entry{
			UID:      raw.UID,
			Name:     joinName(raw.FirstName, raw.MiddleName, raw.LastName),
			Type:     raw.SDNType,
			Programs: raw.Programs,
			Remarks:  raw.Remarks,
		}

		for _, aka := range raw.Akas {
			if aka.LastName != "" {
				entry.AkaNames = append(entry.AkaNames, aka.LastName)
			}
		}
		for _, addr := range raw.Addresses {
			entry.Addresses = append(entry.Addresses, Address{City: addr.City, Country: addr.Country})
		}
		if len(raw.DOBs) > 0 {
			entry.DateOfBirth = raw.DOBs[0]
		}
		for _, id := range raw.IDs {
			entry.IDs = append(entry.IDs, ID{Type: id.Type, Number: id.Number})
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

func joinName(parts ...string) string {
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
