package sqlinline

const QInsertPasswordProfile = `--sql cfd9f37a-0031-4b3d-800c-cd6c1a3d6234
insert into profiles(email, password_hash, provider, display_name)
values (lower($1::text), $2::text, 'password', $3::text)
returning id::text, email, password_hash, coalesce(google_sub, ''), provider, display_name,
  coalesce(wallet_address, ''), is_admin, is_verified_creator, email_verified, created_at, updated_at;
`

const QUpsertGoogleProfile = `--sql ba8fe59c-bad2-49d3-a96e-8503195964ab
insert into profiles(email, google_sub, provider, display_name, email_verified)
values (lower($2::text), $1::text, 'google', $3::text, true)
on conflict (email) do update
set google_sub = excluded.google_sub,
    password_hash = case when profiles.email_verified then profiles.password_hash else '' end,
    email_verified = true,
    display_name = case when profiles.display_name = '' then excluded.display_name else profiles.display_name end,
    updated_at = now()
returning id::text, email, password_hash, coalesce(google_sub, ''), provider, display_name,
  coalesce(wallet_address, ''), is_admin, is_verified_creator, email_verified, created_at, updated_at;
`

const QSelectProfileByID = `--sql 1ae274b3-232c-4a40-bf4b-27d6e6c12d5a
select id::text, email, password_hash, coalesce(google_sub, ''), provider, display_name,
  coalesce(wallet_address, ''), is_admin, is_verified_creator, email_verified, created_at, updated_at
from profiles
where id = $1::uuid;
`

const QSelectProfileByEmail = `--sql f1eb2bef-6bce-480b-bfb1-4a5964b67f75
select id::text, email, password_hash, coalesce(google_sub, ''), provider, display_name,
  coalesce(wallet_address, ''), is_admin, is_verified_creator, email_verified, created_at, updated_at
from profiles
where email = lower($1::text);
`

const QLinkProfileWallet = `--sql 70535db0-504a-4acf-8952-8ebd0c15ecad
update profiles
set wallet_address = lower($2::text), updated_at = now()
where id = $1::uuid;
`

const QSetProfileFlags = `--sql fd78af32-caf0-474d-8774-8c69e3fcc508
update profiles
set is_verified_creator = coalesce($2::boolean, is_verified_creator),
    is_admin = coalesce($3::boolean, is_admin),
    updated_at = now()
where id = $1::uuid
returning id::text, email, password_hash, coalesce(google_sub, ''), provider, display_name,
  coalesce(wallet_address, ''), is_admin, is_verified_creator, email_verified, created_at, updated_at;
`
