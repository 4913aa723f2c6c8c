/*
 * Copyright 2019 The Kythe Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package buildmodel

// Frozen is the immutable Build Model produced by Freeze. It shares the
// same field shapes as Model; callers are expected to treat it as
// read-only (there is no downstream mutator in this package that takes
// a *Frozen). Freeze passes the strings of targets, directories, found
// packages, custom commands, install rules, tests, cache and environment
// variables, CPack components, the global lists, and the project's name,
// version, description, homepage and languages through the Freezer's
// interner. The project's split version fields and default configuration
// name, and the CPack install types and component groups, are copied
// without interning.
type Frozen struct {
	Project Project

	Targets []Target

	CacheVariables []CacheVariable
	EnvVariables   []EnvVariable

	Directories []DirectoryNode

	FoundPackages []FoundPackage

	OutputCustomCommands []CustomCommand

	InstallRules []InstallRule

	Tests []Test

	CPackInstallTypes    []CPackInstallType
	CPackComponentGroups []CPackComponentGroup
	CPackComponents      []CPackComponent

	GlobalCompileDefinitions []string
	GlobalCompileOptions     []string
	GlobalLinkOptions        []string
	GlobalLinkLibraries      []string

	IsWindows bool
	IsUnix    bool
	IsApple   bool
	IsLinux   bool

	TestingEnabled bool
	InstallEnabled bool
}

// interner maps a string to its single canonical instance, compared
// structurally (map key equality) rather than by pointer identity, per
// spec.md §9's explicit note that interning must not rely on pointer
// equality of input strings (two independently-built strings with the
// same contents must intern to the same value).
type interner struct {
	strings map[string]string
}

func newInterner() *interner {
	return &interner{strings: make(map[string]string)}
}

func (in *interner) intern(s string) string {
	if canon, ok := in.strings[s]; ok {
		return canon
	}
	in.strings[s] = s
	return s
}

func (in *interner) internSlice(ss []string) []string {
	if ss == nil {
		return nil
	}
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = in.intern(s)
	}
	return out
}

// Freezer turns a mutable Model into an immutable Frozen snapshot,
// deep-copying every structure and interning every string along the way.
type Freezer struct {
	in *interner
}

// NewFreezer returns a Freezer with a fresh, empty interner.
func NewFreezer() *Freezer {
	return &Freezer{in: newInterner()}
}

// Freeze produces a Frozen snapshot of m. The input Model must not be
// mutated again afterward; Freeze does not clear or reset it.
func (f *Freezer) Freeze(m *Model) *Frozen {
	fr := &Frozen{
		Project:                  f.freezeProject(m.Project),
		Targets:                  f.freezeTargets(m.Targets),
		CacheVariables:           f.freezeCacheVariables(m.CacheVariables),
		EnvVariables:             f.freezeEnvVariables(m.EnvVariables),
		Directories:              f.freezeDirectories(m.Directories),
		FoundPackages:            f.freezeFoundPackages(m.FoundPackages),
		OutputCustomCommands:     f.freezeCustomCommands(m.OutputCustomCommands),
		InstallRules:             f.freezeInstallRules(m.InstallRules),
		Tests:                    f.freezeTests(m.Tests),
		CPackInstallTypes:        append([]CPackInstallType(nil), m.CPackInstallTypes...),
		CPackComponentGroups:     append([]CPackComponentGroup(nil), m.CPackComponentGroups...),
		CPackComponents:          f.freezeCPackComponents(m.CPackComponents),
		GlobalCompileDefinitions: f.in.internSlice(m.GlobalCompileDefinitions),
		GlobalCompileOptions:     f.in.internSlice(m.GlobalCompileOptions),
		GlobalLinkOptions:        f.in.internSlice(m.GlobalLinkOptions),
		GlobalLinkLibraries:      f.in.internSlice(m.GlobalLinkLibraries),
		IsWindows:                m.IsWindows,
		IsUnix:                   m.IsUnix,
		IsApple:                  m.IsApple,
		IsLinux:                  m.IsLinux,
		TestingEnabled:           m.TestingEnabled,
		InstallEnabled:           m.InstallEnabled,
	}
	return fr
}

func (f *Freezer) freezeProject(p Project) Project {
	p.Name = f.in.intern(p.Name)
	p.Version = f.in.intern(p.Version)
	p.Description = f.in.intern(p.Description)
	p.HomepageURL = f.in.intern(p.HomepageURL)
	p.Languages = f.in.internSlice(p.Languages)
	return p
}

func (f *Freezer) freezeTargets(ts []Target) []Target {
	out := make([]Target, len(ts))
	for i, t := range ts {
		out[i] = f.freezeTarget(t)
	}
	return out
}

func (f *Freezer) freezeTarget(t Target) Target {
	t.Name = f.in.intern(t.Name)
	t.Sources = f.in.internSlice(t.Sources)
	t.BuildDeps = f.in.internSlice(t.BuildDeps)
	t.ObjectDeps = f.in.internSlice(t.ObjectDeps)
	t.InterfaceDeps = f.in.internSlice(t.InterfaceDeps)
	t.LinkLibraries = f.freezeConditionalValues(t.LinkLibraries)
	t.CompileDefinitions = f.freezeVisibilityValues(t.CompileDefinitions)
	t.CompileOptions = f.freezeVisibilityValues(t.CompileOptions)
	t.IncludeDirectories = f.freezeVisibilityValues(t.IncludeDirectories)
	t.LinkLibrariesProp = f.freezeVisibilityValues(t.LinkLibrariesProp)
	t.LinkOptions = f.freezeVisibilityValues(t.LinkOptions)
	t.LinkDirectories = f.freezeVisibilityValues(t.LinkDirectories)
	t.Properties = f.freezeStringMap(t.Properties)
	t.PreBuildCommands = f.freezeCustomCommands(t.PreBuildCommands)
	t.PostBuildCommands = f.freezeCustomCommands(t.PostBuildCommands)
	t.OutputName = f.in.intern(t.OutputName)
	t.OutputDirectory = f.in.intern(t.OutputDirectory)
	t.RuntimeDir = f.in.intern(t.RuntimeDir)
	t.ArchiveDir = f.in.intern(t.ArchiveDir)
	t.Prefix = f.in.intern(t.Prefix)
	t.Suffix = f.in.intern(t.Suffix)
	t.AliasOf = f.in.intern(t.AliasOf)
	return t
}

func (f *Freezer) freezeConditionalValues(cs []ConditionalValue) []ConditionalValue {
	if cs == nil {
		return nil
	}
	out := make([]ConditionalValue, len(cs))
	for i, c := range cs {
		out[i] = ConditionalValue{Value: f.in.intern(c.Value), Condition: f.in.intern(c.Condition)}
	}
	return out
}

func (f *Freezer) freezeVisibilityValues(vs []VisibilityValue) []VisibilityValue {
	if vs == nil {
		return nil
	}
	out := make([]VisibilityValue, len(vs))
	for i, v := range vs {
		out[i] = VisibilityValue{
			ConditionalValue: ConditionalValue{Value: f.in.intern(v.Value), Condition: f.in.intern(v.Condition)},
			Visibility:       v.Visibility,
		}
	}
	return out
}

func (f *Freezer) freezeStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[f.in.intern(k)] = f.in.intern(v)
	}
	return out
}

func (f *Freezer) freezeCustomCommands(cs []CustomCommand) []CustomCommand {
	if cs == nil {
		return nil
	}
	out := make([]CustomCommand, len(cs))
	for i, c := range cs {
		c.Outputs = f.in.internSlice(c.Outputs)
		c.Command = f.in.internSlice(c.Command)
		c.Depends = f.in.internSlice(c.Depends)
		c.MainDependency = f.in.intern(c.MainDependency)
		c.Depfile = f.in.intern(c.Depfile)
		c.ByProducts = f.in.internSlice(c.ByProducts)
		c.Comment = f.in.intern(c.Comment)
		c.WorkingDirectory = f.in.intern(c.WorkingDirectory)
		c.JobPool = f.in.intern(c.JobPool)
		if c.ImplicitDepends != nil {
			deps := make([]ImplicitDepend, len(c.ImplicitDepends))
			for j, d := range c.ImplicitDepends {
				deps[j] = ImplicitDepend{Language: f.in.intern(d.Language), File: f.in.intern(d.File)}
			}
			c.ImplicitDepends = deps
		}
		out[i] = c
	}
	return out
}

func (f *Freezer) freezeCacheVariables(cs []CacheVariable) []CacheVariable {
	if cs == nil {
		return nil
	}
	out := make([]CacheVariable, len(cs))
	for i, c := range cs {
		out[i] = CacheVariable{
			Name:  f.in.intern(c.Name),
			Value: f.in.intern(c.Value),
			Type:  f.in.intern(c.Type),
			Doc:   f.in.intern(c.Doc),
		}
	}
	return out
}

func (f *Freezer) freezeEnvVariables(es []EnvVariable) []EnvVariable {
	if es == nil {
		return nil
	}
	out := make([]EnvVariable, len(es))
	for i, e := range es {
		out[i] = EnvVariable{Name: f.in.intern(e.Name), Value: f.in.intern(e.Value)}
	}
	return out
}

func (f *Freezer) freezeDirectories(ds []DirectoryNode) []DirectoryNode {
	out := make([]DirectoryNode, len(ds))
	for i, d := range ds {
		out[i] = DirectoryNode{
			Parent:             d.Parent,
			SourceDir:          f.in.intern(d.SourceDir),
			BinaryDir:          f.in.intern(d.BinaryDir),
			IncludeDirectories: f.in.internSlice(d.IncludeDirectories),
			SystemIncludeDirs:  f.in.internSlice(d.SystemIncludeDirs),
			LinkDirectories:    f.in.internSlice(d.LinkDirectories),
		}
	}
	return out
}

func (f *Freezer) freezeFoundPackages(ps []FoundPackage) []FoundPackage {
	if ps == nil {
		return nil
	}
	out := make([]FoundPackage, len(ps))
	for i, p := range ps {
		var comps map[string]bool
		if p.Components != nil {
			comps = make(map[string]bool, len(p.Components))
			for k, v := range p.Components {
				comps[f.in.intern(k)] = v
			}
		}
		out[i] = FoundPackage{
			Name:        f.in.intern(p.Name),
			Version:     f.in.intern(p.Version),
			IncludeDirs: f.in.internSlice(p.IncludeDirs),
			Libraries:   f.in.internSlice(p.Libraries),
			Definitions: f.in.internSlice(p.Definitions),
			Properties:  f.freezeStringMap(p.Properties),
			Found:       p.Found,
			Components:  comps,
		}
	}
	return out
}

func (f *Freezer) freezeInstallRules(rs []InstallRule) []InstallRule {
	if rs == nil {
		return nil
	}
	out := make([]InstallRule, len(rs))
	for i, r := range rs {
		out[i] = InstallRule{
			Kind:        r.Kind,
			Items:       f.in.internSlice(r.Items),
			Destination: f.in.intern(r.Destination),
			Export:      f.in.intern(r.Export),
		}
	}
	return out
}

func (f *Freezer) freezeTests(ts []Test) []Test {
	if ts == nil {
		return nil
	}
	out := make([]Test, len(ts))
	for i, t := range ts {
		out[i] = Test{
			Name:        f.in.intern(t.Name),
			Command:     f.in.internSlice(t.Command),
			WorkingDir:  f.in.intern(t.WorkingDir),
			ExpandLists: t.ExpandLists,
		}
	}
	return out
}

func (f *Freezer) freezeCPackComponents(cs []CPackComponent) []CPackComponent {
	if cs == nil {
		return nil
	}
	out := make([]CPackComponent, len(cs))
	for i, c := range cs {
		out[i] = CPackComponent{
			Name:         f.in.intern(c.Name),
			DisplayName:  f.in.intern(c.DisplayName),
			Group:        f.in.intern(c.Group),
			Dependencies: f.in.internSlice(c.Dependencies),
			InstallTypes: f.in.internSlice(c.InstallTypes),
		}
	}
	return out
}
