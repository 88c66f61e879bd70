package migrate

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/dObj/lib/substrate"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/rcrowley/go-metrics"
	"strconv"
	"strings"
	"time"
)

var log = logger.GetLogger("migrate")

// migrationTimer records the duration of every migration step.
var migrationTimer = metrics.GetOrRegisterTimer("dobj.migrate.duration", nil)

const (
	// SystemParticipant is the user name recorded as modifier of migrated documents.
	SystemParticipant = "_system_"

	rootWaveletID  = "swl+root"
	modelRootDocID = "model+root"
	mapRootDocID   = "map+root"

	tagModel   = "model"
	tagStrings = "strings"
	tagString  = "s"
	tagMap     = "map"
	tagList    = "list"
	tagMeta    = "metadata"

	stringRefPrefix = "str+"
	inlinePrefix    = "s:"
)

// ErrNotModel is returned for waves without a readable model version.
var ErrNotModel = errors.New("not a model wave")

// Timer returns the timer recording migration durations.
func Timer() metrics.Timer {
	return migrationTimer
}

// CurrentVersion reads the layout version of the model in the root wavelet of domain.
func CurrentVersion(wave *substrate.Wave, domain string) (VersionNumber, error) {
	wavelet := wave.Wavelet(substrate.WaveletID{Domain: domain, ID: rootWaveletID})
	if wavelet == nil {
		return VersionNumber{}, fmt.Errorf("%w: wave %s has no root wavelet", ErrNotModel, wave.ID())
	}
	doc, err := wavelet.Document(modelRootDocID)
	if err != nil {
		return VersionNumber{}, fmt.Errorf("%w: %v", ErrNotModel, err)
	}
	e := doc.ElementWithTag(tagModel)
	if e == nil {
		return VersionNumber{}, fmt.Errorf("%w: %s has no model element", ErrNotModel, modelRootDocID)
	}
	raw, _ := e.Attribute("v")
	version, ok := ParseVersion(raw)
	if !ok {
		return VersionNumber{}, fmt.Errorf("%w: unreadable version %q", ErrNotModel, raw)
	}
	return version, nil
}

// MigrateIfNecessary upgrades the model of wave to LastVersion. It returns false
// if the wave holds no model or a migration step failed.
func MigrateIfNecessary(wave *substrate.Wave, domain string) bool {
	version, err := CurrentVersion(wave, domain)
	if err != nil {
		log.Debugf("no migration for wave %s: %v", wave.ID(), err)
		return false
	}

	if version == Version02 {
		if err := MigrateV02ToV10(wave, domain); err != nil {
			log.Errorf("migration of wave %s from %s failed: %v", wave.ID(), version, err)
			return false
		}
		version = Version10
	}

	if version != LastVersion {
		log.Warningf("wave %s has unknown model version %s", wave.ID(), version)
	}
	return true
}

// MigrateV02ToV10 moves the root map of model+root into its own document, adds
// metadata to every map and list document and replaces references into the old
// global string index by inline s:<value> literals. The string index is removed.
func MigrateV02ToV10(wave *substrate.Wave, domain string) error {
	start := time.Now()
	defer migrationTimer.UpdateSince(start)

	wavelet := wave.Wavelet(substrate.WaveletID{Domain: domain, ID: rootWaveletID})
	if wavelet == nil {
		return fmt.Errorf("%w: wave %s has no root wavelet", ErrNotModel, wave.ID())
	}
	modelRoot, err := wavelet.Document(modelRootDocID)
	if err != nil {
		return err
	}

	// 1. root map
	mapRoot, err := wavelet.CreateDocument(mapRootDocID, wavelet.Creator())
	if err != nil {
		return err
	}
	if oldMap := modelRoot.ElementWithTag(tagMap); oldMap != nil {
		if err := mapRoot.AppendXML(mapRoot.DocumentElement(), "<"+tagMap+">"+substrate.ChildrenXML(oldMap)+"</"+tagMap+">"); err != nil {
			return err
		}
		if err := modelRoot.DeleteNode(oldMap); err != nil {
			return err
		}
	} else if _, err := mapRoot.CreateChildElement(mapRoot.DocumentElement(), tagMap, nil); err != nil {
		return err
	}

	// 2. model element
	modelElem := modelRoot.ElementWithTag(tagModel)
	for _, attr := range []substrate.Attr{{Name: "v", Value: Version10.String()}, {Name: "t", Value: "default"}, {Name: "a", Value: "default"}} {
		if err := modelRoot.SetElementAttribute(modelElem, attr.Name, attr.Value); err != nil {
			return err
		}
	}

	// 3. the string index must be read completely before any reference is rewritten
	stringsElem := modelRoot.ElementWithTag(tagStrings)
	var values []string
	if stringsElem != nil {
		for _, s := range stringsElem.Children() {
			if s.Tag() == tagString {
				values = append(values, s.AttributeOr("v", ""))
			}
		}
	}

	w := &walker{
		wavelet:  wavelet,
		values:   values,
		modifier: SystemParticipant + "@" + domain,
		now:      wave.Now(),
	}
	if err := w.process(mapRootDocID, "root"); err != nil {
		return err
	}

	if stringsElem != nil {
		if err := modelRoot.DeleteNode(stringsElem); err != nil {
			return err
		}
	}
	log.Infof("migrated wave %s to %s (%d documents, %d strings)", wave.ID(), Version10, w.visited, len(values))
	return nil
}

// walker rewrites the documents reachable from the root map depth first.
type walker struct {
	wavelet  *substrate.Wavelet
	values   []string
	modifier string
	now      time.Time
	visited  int
}

func (w *walker) process(id, path string) error {
	if !strings.HasPrefix(id, tagMap+"+") && !strings.HasPrefix(id, tagList+"+") {
		return nil
	}
	doc, err := w.wavelet.Document(id)
	if err != nil {
		log.Warningf("skipping %s at %s: %v", id, path, err)
		return nil
	}
	w.visited++
	if err := w.addMetadata(doc, path); err != nil {
		return err
	}
	if strings.HasPrefix(id, tagMap+"+") {
		return w.processEntries(doc, tagMap, "v", path, func(e *substrate.Element, _ int) string {
			return e.AttributeOr("k", "")
		})
	}
	return w.processEntries(doc, tagList, "r", path, func(_ *substrate.Element, i int) string {
		return strconv.Itoa(i)
	})
}

// processEntries rewrites string references in attr of the children of the
// first tag element and descends into all other references.
func (w *walker) processEntries(doc *substrate.Document, tag, attr, path string, segment func(*substrate.Element, int) string) error {
	container := doc.ElementWithTag(tag)
	if container == nil {
		return nil
	}
	for i, e := range container.Children() {
		ref := e.AttributeOr(attr, "")
		if raw, ok := strings.CutPrefix(ref, stringRefPrefix); ok {
			index, err := strconv.Atoi(raw)
			if err != nil || index < 0 || index >= len(w.values) {
				return fmt.Errorf("%s references unknown string %q", doc.ID(), ref)
			}
			if err := doc.SetElementAttribute(e, attr, inlinePrefix+w.values[index]); err != nil {
				return err
			}
			continue
		}
		if err := w.process(ref, path+"."+segment(e, i)); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) addMetadata(doc *substrate.Document, path string) error {
	var creator, created string
	if info, ok := w.wavelet.Info(doc.ID()); ok {
		creator = info.Author
		created = strconv.FormatInt(info.LastModified.UnixMilli(), 10)
	}
	_, err := doc.InsertChildAt(doc.DocumentElement(), 0, tagMeta, substrate.Attrs(
		"p", path,
		"pc", creator,
		"tc", created,
		"pm", w.modifier,
		"tm", strconv.FormatInt(w.now.UnixMilli(), 10),
		"acl", "",
		"ap", "default",
	))
	return err
}
