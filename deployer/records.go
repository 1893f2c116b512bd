package deployer

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const emptyRecordsDocument = `{"deployments":[]}`

var ErrRecordsCorrupted = errors.New("deployment records file is not valid JSON")

// DeploymentRecord is one entry of the deployment record log.
type DeploymentRecord struct {
	Contract    string    `json:"contract"`
	Address     string    `json:"address"`
	TxHash      string    `json:"txHash"`
	From        string    `json:"from"`
	ChainID     string    `json:"chainId"`
	BlockNumber uint64    `json:"blockNumber"`
	GasUsed     uint64    `json:"gasUsed"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewDeploymentRecord(result *DeploymentResult) DeploymentRecord {
	rec := DeploymentRecord{
		Contract:  result.ContractName,
		Address:   result.ContractAddress.Hex(),
		TxHash:    result.TxHash.Hex(),
		From:      result.From.Hex(),
		GasUsed:   result.GasUsed,
		Timestamp: time.Now().UTC(),
	}

	if result.ChainID != nil {
		rec.ChainID = result.ChainID.String()
	}
	if result.BlockNumber != nil {
		rec.BlockNumber = result.BlockNumber.Uint64()
	}

	return rec
}

// RecordStore keeps deployment records in a single JSON document on disk,
// under the "deployments" array.
type RecordStore struct {
	path string
	mux  sync.Mutex
}

func NewRecordStore(path string) *RecordStore {
	return &RecordStore{
		path: path,
	}
}

func (s *RecordStore) Append(rec DeploymentRecord) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	doc, err := s.readDocument()
	if err != nil {
		return err
	}

	recJSON, err := json.Marshal(rec)
	if err != nil {
		err = errors.Wrap(err, "failed to marshal deployment record")
		return err
	}

	doc, err = sjson.SetRawBytes(doc, "deployments.-1", recJSON)
	if err != nil {
		err = errors.Wrap(err, "failed to append deployment record")
		return err
	}

	return s.writeDocument(doc)
}

// List returns records in the order they were appended. Empty contract name
// lists all of them.
func (s *RecordStore) List(contractName string) ([]DeploymentRecord, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	doc, err := s.readDocument()
	if err != nil {
		return nil, err
	}

	query := "deployments"
	if len(contractName) > 0 {
		query = fmt.Sprintf("deployments.#(contract==%q)#", contractName)
	}

	var records []DeploymentRecord
	gjson.GetBytes(doc, query).ForEach(func(_, value gjson.Result) bool {
		var rec DeploymentRecord
		if err = json.Unmarshal([]byte(value.Raw), &rec); err != nil {
			err = errors.Wrap(err, "failed to unmarshal deployment record")
			return false
		}

		records = append(records, rec)
		return true
	})

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (s *RecordStore) readDocument() ([]byte, error) {
	doc, err := ioutil.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []byte(emptyRecordsDocument), nil
		}

		err = errors.Wrap(err, "failed to read deployment records")
		return nil, err
	}

	if len(doc) == 0 {
		return []byte(emptyRecordsDocument), nil
	} else if !gjson.ValidBytes(doc) {
		return nil, errors.Wrap(ErrRecordsCorrupted, s.path)
	}

	return doc, nil
}

func (s *RecordStore) writeDocument(doc []byte) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			err = errors.Wrap(err, "failed to prepare deployment records dir")
			return err
		}
	}

	tmpPath := s.path + ".tmp"
	if err := ioutil.WriteFile(tmpPath, doc, 0644); err != nil {
		err = errors.Wrap(err, "failed to write deployment records")
		return err
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		err = errors.Wrap(err, "failed to replace deployment records")
		return err
	}

	return nil
}

func (d *deployer) History(contractName string) ([]DeploymentRecord, error) {
	if len(d.options.RecordsFile) == 0 {
		return nil, errors.New("deployment records file not configured")
	}

	return NewRecordStore(d.options.RecordsFile).List(contractName)
}
