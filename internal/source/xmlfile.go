package source

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/anvil-platform/depstage/internal/deps"
	"github.com/anvil-platform/depstage/internal/semver"
)

// XMLFileProvider parses one *Dependencies.xml declaration file. Schema:
//
//	<dependencies>
//	  <androidPackages>
//	    <androidPackage spec="com.google.firebase:firebase-common:16.0.0+">
//	      <repositories>
//	        <repository>https://maven.google.com</repository>
//	      </repositories>
//	    </androidPackage>
//	  </androidPackages>
//	  <iosPods>
//	    <iosPod name="Firebase/Core" version="7.1.0" minTargetSdk="8.0">
//	      <sources>
//	        <source>https://cdn.cocoapods.org/</source>
//	      </sources>
//	      <properties>
//	        <property name="modular_headers" value="true"/>
//	      </properties>
//	    </iosPod>
//	  </iosPods>
//	  <swiftPackages>
//	    <swiftPackage url="https://github.com/firebase/firebase-ios-sdk" version="10.0.0" minTargetSdk="11.0">
//	      <products>
//	        <product name="FirebaseCore" weakLink="false"/>
//	      </products>
//	    </swiftPackage>
//	  </swiftPackages>
//	</dependencies>
//
// Malformed entries (missing name/spec/url attributes) are skipped with a
// warning; they never abort sibling entries. Declarations loaded from files
// default to overwrite-disallowed, so the first file to declare a key wins.
type XMLFileProvider struct {
	Path string
}

func NewXMLFileProvider(path string) *XMLFileProvider {
	return &XMLFileProvider{Path: path}
}

func (p *XMLFileProvider) Name() string {
	return p.Path
}

func (p *XMLFileProvider) ReadAll() ([]deps.Declaration, []string, error) {
	raw, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("read dependency file: %w", err)
	}
	return parseDependenciesXML(p.Path, raw)
}

// xmlParser walks the element tree with a token decoder so each entry can be
// tagged with the line it starts on.
type xmlParser struct {
	path     string
	raw      []byte
	dec      *xml.Decoder
	decls    []deps.Declaration
	warnings []string
}

func parseDependenciesXML(path string, raw []byte) ([]deps.Declaration, []string, error) {
	p := &xmlParser{
		path: path,
		raw:  raw,
		dec:  xml.NewDecoder(bytes.NewReader(raw)),
	}
	if err := p.run(); err != nil {
		return nil, p.warnings, fmt.Errorf("parse %s: %w", path, err)
	}
	return p.decls, p.warnings, nil
}

func (p *xmlParser) run() error {
	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "dependencies":
			// container, descend
		case "androidPackages", "iosPods", "swiftPackages":
			// container, descend
		case "androidPackage":
			p.androidPackage(start)
		case "iosPod":
			p.iosPod(start)
		case "swiftPackage":
			p.swiftPackage(start)
		default:
			if err := p.dec.Skip(); err != nil {
				return err
			}
		}
	}
}

// line reports the 1-based line of the decoder's current input position.
func (p *xmlParser) line() int {
	off := p.dec.InputOffset()
	if off > int64(len(p.raw)) {
		off = int64(len(p.raw))
	}
	return 1 + bytes.Count(p.raw[:off], []byte{'\n'})
}

func (p *xmlParser) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func attr(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// minPlatform parses an optional minTargetSdk attribute, falling back to the
// zero (unset) value with a warning on malformed input.
func (p *xmlParser) minPlatform(start xml.StartElement, entry string) semver.PlatformVersion {
	raw := attr(start, "minTargetSdk")
	if raw == "" {
		return 0
	}
	v, err := semver.ParsePlatformVersion(raw)
	if err != nil {
		p.warnf("%s:%d: %s has malformed minTargetSdk %q, ignoring it", p.path, p.line(), entry, raw)
		return 0
	}
	return v
}

func (p *xmlParser) androidPackage(start xml.StartElement) {
	line := p.line()
	spec := attr(start, "spec")
	if spec == "" {
		p.warnf("%s:%d: androidPackage is missing the spec attribute, skipping it", p.path, line)
		p.skip()
		return
	}
	parts := strings.Split(spec, ":")
	if len(parts) < 2 {
		p.warnf("%s:%d: androidPackage spec %q is not group:artifact[:version], skipping it", p.path, line, spec)
		p.skip()
		return
	}
	version := ""
	if len(parts) >= 3 {
		version = parts[2]
	}
	d := deps.Declaration{
		Ecosystem:   deps.EcosystemAndroid,
		Key:         parts[0] + ":" + parts[1],
		VersionSpec: semver.ParseSpec(version),
		Provenance:  deps.FileProvenance(p.path, line),
		MinPlatform: p.minPlatform(start, "androidPackage "+spec),
	}
	if cls := attr(start, "classifier"); cls != "" {
		d.Properties = append(d.Properties, deps.Property{Name: "classifier", Value: cls})
	}
	p.children(start.Name.Local, map[string]func(xml.StartElement){
		"repositories": p.uriList("repository", &d.Sources),
	})
	p.decls = append(p.decls, d)
}

func (p *xmlParser) iosPod(start xml.StartElement) {
	line := p.line()
	name := attr(start, "name")
	if name == "" {
		p.warnf("%s:%d: iosPod is missing the name attribute, skipping it", p.path, line)
		p.skip()
		return
	}
	d := deps.Declaration{
		Ecosystem:   deps.EcosystemPod,
		Key:         name,
		VersionSpec: semver.ParseSpec(attr(start, "version")),
		Provenance:  deps.FileProvenance(p.path, line),
		MinPlatform: p.minPlatform(start, "iosPod "+name),
	}
	// Attribute-level pod options travel as ordered properties.
	for _, opt := range []string{"bitcodeEnabled", "modular_headers", "configurations", "subspecs"} {
		if v := attr(start, opt); v != "" {
			d.Properties = append(d.Properties, deps.Property{Name: opt, Value: v})
		}
	}
	p.children(start.Name.Local, map[string]func(xml.StartElement){
		"sources":    p.uriList("source", &d.Sources),
		"properties": p.propertyList(&d.Properties),
	})
	p.decls = append(p.decls, d)
}

func (p *xmlParser) swiftPackage(start xml.StartElement) {
	line := p.line()
	url := attr(start, "url")
	if url == "" {
		p.warnf("%s:%d: swiftPackage is missing the url attribute, skipping it", p.path, line)
		p.skip()
		return
	}
	d := deps.Declaration{
		Ecosystem:   deps.EcosystemSwift,
		Key:         url,
		VersionSpec: semver.ParseSpec(attr(start, "version")),
		Provenance:  deps.FileProvenance(p.path, line),
		MinPlatform: p.minPlatform(start, "swiftPackage "+url),
	}
	p.children(start.Name.Local, map[string]func(xml.StartElement){
		"products": func(products xml.StartElement) {
			p.children(products.Name.Local, map[string]func(xml.StartElement){
				"product": func(prod xml.StartElement) {
					name := attr(prod, "name")
					if name == "" {
						p.warnf("%s:%d: product under %s is missing the name attribute, skipping it", p.path, p.line(), url)
						p.skip()
						return
					}
					sp := deps.SwiftProduct{
						Name:     name,
						WeakLink: attr(prod, "weakLink") == "true",
					}
					if repl := attr(prod, "replaces"); repl != "" {
						for _, r := range strings.Split(repl, ",") {
							if r = strings.TrimSpace(r); r != "" {
								sp.Replaces = append(sp.Replaces, r)
							}
						}
					}
					d.Products = append(d.Products, sp)
					p.skip()
				},
			})
		},
	})
	p.decls = append(p.decls, d)
}

// children iterates the direct children of the element named outer, invoking
// the matching handler (which must consume its element) and skipping the rest.
func (p *xmlParser) children(outer string, handlers map[string]func(xml.StartElement)) {
	depth := 0
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				if h, ok := handlers[t.Name.Local]; ok {
					h(t)
					continue
				}
			}
			depth++
		case xml.EndElement:
			if depth == 0 {
				return
			}
			depth--
		}
	}
}

// uriList consumes a container of URI leaf elements named item, appending
// their trimmed text content to dst in document order.
func (p *xmlParser) uriList(item string, dst *[]string) func(xml.StartElement) {
	return func(container xml.StartElement) {
		p.children(container.Name.Local, map[string]func(xml.StartElement){
			item: func(el xml.StartElement) {
				var text string
				if err := p.dec.DecodeElement(&text, &el); err != nil {
					return
				}
				if text = strings.TrimSpace(text); text != "" {
					*dst = append(*dst, text)
				}
			},
		})
	}
}

// propertyList consumes <properties><property name=... value=.../></properties>.
func (p *xmlParser) propertyList(dst *[]deps.Property) func(xml.StartElement) {
	return func(container xml.StartElement) {
		p.children(container.Name.Local, map[string]func(xml.StartElement){
			"property": func(el xml.StartElement) {
				name := attr(el, "name")
				if name == "" {
					p.warnf("%s:%d: property is missing the name attribute, skipping it", p.path, p.line())
					p.skip()
					return
				}
				*dst = append(*dst, deps.Property{Name: name, Value: attr(el, "value")})
				p.skip()
			},
		})
	}
}

func (p *xmlParser) skip() {
	_ = p.dec.Skip()
}
